package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

// DefaultCounterPrefix 是浏览计数在 Store 中的 key 前缀。
const DefaultCounterPrefix = "shoprec:views"

// ViewCounter 订阅浏览事件，把每个商品的浏览次数累加到 CounterStore（{prefix}:{productID}）。
// Serve 满足 suture.Service，可直接挂到 supervisor 下。
type ViewCounter struct {
	sub    message.Subscriber
	topic  string
	store  core.CounterStore
	prefix string
	log    zerolog.Logger

	processed atomic.Int64
	malformed atomic.Int64
}

func NewViewCounter(sub message.Subscriber, topic string, store core.CounterStore, log zerolog.Logger) *ViewCounter {
	if topic == "" {
		topic = DefaultTopic
	}
	return &ViewCounter{
		sub:    sub,
		topic:  topic,
		store:  store,
		prefix: DefaultCounterPrefix,
		log:    log.With().Str("component", "view_counter").Logger(),
	}
}

// Key 返回商品浏览计数的 key。
func (c *ViewCounter) Key(productID string) string {
	return c.prefix + ":" + productID
}

// Count 返回商品当前的浏览次数。
func (c *ViewCounter) Count(ctx context.Context, productID string) (int64, error) {
	return c.store.IncrBy(ctx, c.Key(productID), 0)
}

// Processed 返回已成功计数的事件数。
func (c *ViewCounter) Processed() int64 { return c.processed.Load() }

// Serve 消费事件直到 ctx 取消。
func (c *ViewCounter) Serve(ctx context.Context) error {
	messages, err := c.sub.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}
	c.log.Info().Str("topic", c.topic).Msg("view counter started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// pub/sub 已关闭或 ctx 已取消
				return ctx.Err()
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *ViewCounter) handle(ctx context.Context, msg *message.Message) {
	// gochannel 对 Nack 立即重投，这里无论成败都 Ack，失败只记录日志
	defer msg.Ack()

	var ev core.ViewEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil || ev.ProductID == "" {
		c.malformed.Add(1)
		c.log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("malformed view event")
		return
	}
	n, err := c.store.IncrBy(ctx, c.Key(ev.ProductID), 1)
	if err != nil {
		c.log.Warn().Err(err).Str("product_id", ev.ProductID).Msg("increment view count failed")
		return
	}
	c.processed.Add(1)
	c.log.Debug().Str("product_id", ev.ProductID).Int64("views", n).Msg("view counted")
}

func (c *ViewCounter) String() string { return "view-counter" }
