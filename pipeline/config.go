package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config 是 Pipeline 的配置结构（支持 YAML/JSON）。
//
// 一个文件可以定义多个策略的 Pipeline，例如：
//
//	pipelines:
//	  - name: similar
//	    nodes:
//	      - type: recall.similar
//	      - type: filter
//	        config:
//	          filters: [{ type: exclude_subject }, { type: in_stock }]
//	      - type: rank.sort
//	      - type: rerank.topn
type Config struct {
	Pipelines []Spec `yaml:"pipelines" json:"pipelines"`
}

// Spec 是单个 Pipeline 的配置，Name 即策略名。
type Spec struct {
	Name  string       `yaml:"name" json:"name"`
	Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
}

// NodeConfig 是单个 Node 的配置。
type NodeConfig struct {
	Type   string         `yaml:"type" json:"type"`     // recall.similar / filter / rank.sort / rerank.topn 等
	Config map[string]any `yaml:"config" json:"config"` // Node 特定配置
}

// LoadFromYAML 从 YAML 文件加载 Pipeline 配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML 解析 YAML 内容。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载 Pipeline 配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// LoadFile 按扩展名选择 YAML 或 JSON。
func LoadFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadFromJSON(path)
	default:
		return LoadFromYAML(path)
	}
}

// BuildPipelines 根据配置构建全部 Pipeline，按名称索引。
// 注意：factory 应该在独立的 config 包中注册，避免循环依赖。
func (c *Config) BuildPipelines(factory *NodeFactory) (map[string]*Pipeline, error) {
	out := make(map[string]*Pipeline, len(c.Pipelines))
	for _, spec := range c.Pipelines {
		if spec.Name == "" {
			return nil, fmt.Errorf("pipeline without name")
		}
		if _, dup := out[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate pipeline %q", spec.Name)
		}
		p, err := spec.Build(factory)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", spec.Name, err)
		}
		out[spec.Name] = p
	}
	return out, nil
}

// Build 构建单个 Pipeline。
func (s Spec) Build(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(s.Nodes))
	for _, nc := range s.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build node %s: %w", nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Name: s.Name, Nodes: nodes}, nil
}

// NodeBuilder 根据配置构建 Node。
type NodeBuilder func(map[string]any) (Node, error)

// NodeFactory 用于根据配置构建 Node 实例。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register 注册 Node 构建器。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Types 返回已注册的 Node 类型。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	return out
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return builder(config)
}
