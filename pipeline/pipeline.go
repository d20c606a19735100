package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
)

// Pipeline 把一个推荐策略拆成可组合的 Node 链：recall -> filter -> rank -> rerank。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// New 创建 Pipeline。
func New(name string, nodes ...Node) *Pipeline {
	return &Pipeline{Name: name, Nodes: nodes}
}

// Run 依次执行各 Node，任一 Node 出错即中断，并在错误中带上出错的 Node 名。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Kinds 返回各 Node 的阶段，主要用于日志与测试。
func (p *Pipeline) Kinds() []Kind {
	out := make([]Kind, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, n.Kind())
	}
	return out
}
