// Package builders 注册内置 Node 的配置构建器。
//
// 入口处 import _ "github.com/rushteam/shoprec/config/builders" 后，
// Pipeline 配置文件即可引用这些 node 类型。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

func init() {
	for _, typ := range sourceTypes {
		config.Register("recall."+typ, func(cfg map[string]any) (pipeline.Node, error) {
			return BuildSource(typ, cfg)
		})
	}
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("filter", FilterBuilder(nil))
	config.Register("rank.sort", BuildSortNode)
	config.Register("rank.popularity_boost", BuildPopularityBoostNode)
	config.Register("rank.lr", BuildLRNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// UseStore 让 filter 节点的 blacklist 过滤器可以从 Store 读取黑名单（配置中的 key）。
func UseStore(s core.Store) {
	config.Register("filter", FilterBuilder(filter.NewStoreAdapter(s)))
}

var sourceTypes = []string{
	"similar",
	"popular",
	"trending",
	"collaborative",
	"bought_together",
	"recently_viewed",
	"personalized",
}

// BuildSource 按类型构建召回源；cfg 可选 content_weights（tags/price/name/description）。
func BuildSource(typ string, cfg map[string]any) (recall.SourceNode, error) {
	m, err := contentModel(cfg)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "similar":
		return &recall.Similar{Model: m}, nil
	case "popular":
		return &recall.Popular{}, nil
	case "trending":
		return &recall.Trending{}, nil
	case "collaborative":
		return &recall.CollaborativeFiltering{}, nil
	case "bought_together":
		return &recall.BoughtTogether{}, nil
	case "recently_viewed":
		return &recall.UserHistory{Mode: recall.HistoryModeRecent}, nil
	case "personalized":
		return &recall.UserHistory{Mode: recall.HistoryModePersonalized, Model: m}, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", typ)
	}
}

func contentModel(cfg map[string]any) (model.PairModel, error) {
	raw, ok := cfg["content_weights"]
	if !ok {
		return nil, nil
	}
	wm, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("content_weights must be a map")
	}
	w := model.DefaultContentWeights()
	w.Tags = floatOr(wm, "tags", w.Tags)
	w.Price = floatOr(wm, "price", w.Price)
	w.Name = floatOr(wm, "name", w.Name)
	w.Description = floatOr(wm, "description", w.Description)
	return &model.ContentModel{Weights: w}, nil
}

func BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok || len(sourcesConfig) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid source entry: %v", sc)
		}
		src, err := BuildSource(conv.ConfigGet(sourceMap, "type", ""), sourceMap)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
	}
	timeout, err := durationOr(cfg, "timeout", 0)
	if err != nil {
		return nil, err
	}
	fanout.Timeout = timeout

	switch s := conv.ConfigGet(cfg, "merge_strategy", recall.MergePriority); s {
	case recall.MergeFirst, recall.MergeUnion, recall.MergePriority:
		fanout.MergeStrategy = s
	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", s)
	}
	return fanout, nil
}

// FilterBuilder 返回 filter 节点的构建器。配置形如：
//
//	type: filter
//	config:
//	  fail_closed: false
//	  filters:
//	    - type: exclude_subject
//	    - type: in_stock
//	    - type: expr
//	      expr: product.price < 50.0
//	    - type: blacklist
//	      item_ids: ["3"]
//	      tags: [Discontinued]
//	      key: shoprec:blacklist
//	      refresh: 30s
//	    - type: exposed
//	      views: true
//	      purchases: true
func FilterBuilder(adapter *filter.StoreAdapter) config.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		filtersConfig, ok := cfg["filters"].([]any)
		if !ok {
			return nil, fmt.Errorf("filters not found or invalid")
		}
		filters := make([]filter.Filter, 0, len(filtersConfig))
		for _, fc := range filtersConfig {
			filterMap, ok := fc.(map[string]any)
			if !ok {
				continue
			}
			switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
			case "exclude_subject":
				filters = append(filters, &filter.ExcludeSubjectFilter{})
			case "in_stock":
				filters = append(filters, &filter.InStockFilter{})
			case "expr":
				f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
				if err != nil {
					return nil, fmt.Errorf("expr filter: %w", err)
				}
				filters = append(filters, f)
			case "blacklist":
				ids := conv.SliceAnyToString(filterMap["item_ids"])
				key := conv.ConfigGet(filterMap, "key", "")
				if key != "" && adapter == nil {
					return nil, fmt.Errorf("blacklist key %q configured but no store is available", key)
				}
				bl := filter.NewBlacklistFilter(ids, adapter, key)
				bl.Tags = conv.SliceAnyToString(filterMap["tags"])
				refresh, err := durationOr(filterMap, "refresh", 0)
				if err != nil {
					return nil, fmt.Errorf("blacklist filter: %w", err)
				}
				bl.Refresh = refresh
				filters = append(filters, bl)
			case "exposed":
				filters = append(filters, &filter.ExposedFilter{
					IncludeViews:     conv.ConfigGet(filterMap, "views", true),
					IncludePurchases: conv.ConfigGet(filterMap, "purchases", true),
				})
			default:
				return nil, fmt.Errorf("unknown filter type: %s", filterType)
			}
		}
		return &filter.FilterNode{
			Filters:    filters,
			FailClosed: conv.ConfigGet(cfg, "fail_closed", false),
		}, nil
	}
}

func BuildSortNode(cfg map[string]any) (pipeline.Node, error) {
	return &rank.SortNode{Ascending: conv.ConfigGet(cfg, "ascending", false)}, nil
}

func BuildPopularityBoostNode(cfg map[string]any) (pipeline.Node, error) {
	return &rank.PopularityBoostNode{Weight: floatOr(cfg, "weight", 0.1)}, nil
}

// BuildLRNode 从 model_file（JSON）或内联的 bias/weights 构建 LR 排序节点。
func BuildLRNode(cfg map[string]any) (pipeline.Node, error) {
	if path := conv.ConfigGet(cfg, "model_file", ""); path != "" {
		m, err := model.LoadLRModel(path)
		if err != nil {
			return nil, err
		}
		return &rank.LRNode{Model: m}, nil
	}
	weightsMap, ok := cfg["weights"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weights not found")
	}
	weights := make(map[string]float64, len(weightsMap))
	for k, v := range weightsMap {
		f, ok := conv.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("weight %s: not a number", k)
		}
		weights[k] = f
	}
	return &rank.LRNode{Model: &model.LRModel{Bias: floatOr(cfg, "bias", 0), Weights: weights}}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:       conv.ConfigGet(cfg, "label_key", ""),
		MaxPerCategory: conv.ConfigGetInt(cfg, "max_per_category", 0),
	}, nil
}

// floatOr 兼容 YAML 解析出的 int 与 float64。
func floatOr(m map[string]any, key string, def float64) float64 {
	if v, ok := conv.ToFloat64(m[key]); ok {
		return v
	}
	return def
}

// durationOr 接受 "500ms" 形式的字符串或以秒为单位的数字。
func durationOr(m map[string]any, key string, def time.Duration) (time.Duration, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	}
	if f, ok := conv.ToFloat64(v); ok {
		return time.Duration(f * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("%s: unsupported value %v", key, v)
}
