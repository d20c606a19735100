package core

import "github.com/rushteam/shoprec/pkg/utils"

// RecommendContext 承载一次推荐请求的全部输入，贯穿整个 Pipeline 透传。
//
// Catalog 是本次请求的目录快照，请求期间只读；
// 各 Node 不自行拉取目录，保证同一请求内看到的是同一份数据。
type RecommendContext struct {
	// Strategy 是本次请求的推荐策略（similar / popular / trending ...）
	Strategy string

	// ProductID 是请求的主体商品（similar / frequently-bought-together 等需要）
	ProductID string

	// UserID 是访客标识：浏览历史按它分区（会话、设备或账号由调用方决定）
	UserID string

	// Limit 是最终返回条数
	Limit int

	Catalog []*Product

	// ViewHistory 最近浏览在前；PurchaseHistory 为已购商品 ID
	ViewHistory     []string
	PurchaseHistory []string

	// Rand 是随机源，trending 的扰动项使用；为空时使用默认随机源
	Rand RandSource

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// Subject 返回请求主体商品；ProductID 为空或不在目录中时返回 false。
func (rctx *RecommendContext) Subject() (*Product, bool) {
	if rctx == nil || rctx.ProductID == "" {
		return nil, false
	}
	return FindProduct(rctx.Catalog, rctx.ProductID)
}

// RandOrDefault 返回请求上的随机源，未设置时返回进程级默认源。
func (rctx *RecommendContext) RandOrDefault() RandSource {
	if rctx == nil || rctx.Rand == nil {
		return DefaultRand()
	}
	return rctx.Rand
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
