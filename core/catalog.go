package core

import "context"

// CatalogProvider 提供完整的商品目录快照。
// 返回的切片在一次推荐计算期间视为只读，调用方不得修改。
type CatalogProvider interface {
	Products(ctx context.Context) ([]*Product, error)
}

// PurchaseHistory 提供访客的已购商品 ID（可选，用于 personalized 策略）。
type PurchaseHistory interface {
	Purchases(ctx context.Context, userID string) ([]string, error)
}

// CatalogFunc 把普通函数适配为 CatalogProvider。
type CatalogFunc func(ctx context.Context) ([]*Product, error)

func (f CatalogFunc) Products(ctx context.Context) ([]*Product, error) { return f(ctx) }
