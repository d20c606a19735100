package core

import (
	"context"
	"time"
)

// ViewEvent 是一次商品浏览。
type ViewEvent struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	At        time.Time `json:"at"`
}

// ViewObserver 在浏览被记录后收到通知（事件发布、计数等）。
// 实现不应阻塞调用方，错误自行处理。
type ViewObserver interface {
	ProductViewed(ctx context.Context, ev ViewEvent)
}
