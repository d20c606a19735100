package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Source 表示一个可复用的召回源（相似/热门/趋势/个性化/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
//
// 召回源只负责对目录打分，不做排序与截断：
// 排序交给 rank.SortNode，截断交给 rerank.TopNNode。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// SourceNode 是既能单独召回、又能直接挂进 Pipeline 的召回源。
// 本包内置的召回源都实现了它。
type SourceNode interface {
	Source
	pipeline.Node
}

var (
	_ SourceNode = (*Similar)(nil)
	_ SourceNode = (*Popular)(nil)
	_ SourceNode = (*Trending)(nil)
	_ SourceNode = (*CollaborativeFiltering)(nil)
	_ SourceNode = (*BoughtTogether)(nil)
	_ SourceNode = (*UserHistory)(nil)
)

// scoreFunc 对单个候选商品打分。
type scoreFunc func(candidate *core.Product) float64

// scoreCatalog 按目录顺序为每个未被排除的商品打分，并打上召回来源 label。
func scoreCatalog(catalog []*core.Product, exclude map[string]struct{}, source, metric string, score scoreFunc) []*core.Item {
	out := make([]*core.Item, 0, len(catalog))
	for _, p := range catalog {
		if p == nil {
			continue
		}
		if _, skip := exclude[p.ID]; skip {
			continue
		}
		it := core.NewItem(p)
		it.Score = score(p)
		it.PutLabel(utils.LabelRecallSource, labelRecall(source))
		if metric != "" {
			it.PutLabel(utils.LabelRecallMetric, utils.Label{Value: metric, Source: "recall"})
		}
		out = append(out, it)
	}
	return out
}

// rankProducts 稳定降序排序后截取前 limit 个商品。
func rankProducts(items []*core.Item, limit int) []*core.Product {
	core.SortByScore(items)
	return core.Products(core.TopN(items, limit))
}

func excludeIDs(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

// seed 取商品 ID 开头的整数作为伪随机种子；解析不到或为 0 时取 1。
func seed(id string) int64 {
	n, ok := conv.LeadingInt(id)
	if !ok || n == 0 {
		return 1
	}
	return n
}

func labelRecall(source string) utils.Label {
	return utils.Label{Value: source, Source: "recall"}
}
