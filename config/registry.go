package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/pipeline"
)

// 使用 Pipeline 配置文件时，需在入口处 import _ "github.com/rushteam/shoprec/config/builders"
// 以触发内置 Node（recall.similar、filter、rank.sort、rerank.topn 等）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，重复注册时后者覆盖前者。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回基于当前注册表构建的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验所有 Pipeline 的 node 类型均已注册；
// 若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, spec := range cfg.Pipelines {
		for _, nc := range spec.Nodes {
			if _, ok := defaultBuilders[nc.Type]; !ok {
				types := make([]string, 0, len(defaultBuilders))
				for t := range defaultBuilders {
					types = append(types, t)
				}
				sort.Strings(types)
				return fmt.Errorf("pipeline %s: unsupported node type %q (supported: %v)", spec.Name, nc.Type, types)
			}
		}
	}
	return nil
}

// LoadPipelines 读取 Pipeline 配置文件，校验 node 类型后构建全部 Pipeline。
func LoadPipelines(path string) (map[string]*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipelines(DefaultFactory())
}
