// Package events 把商品浏览发布为 pub/sub 事件，并在订阅端累计浏览次数。
//
// 默认使用 watermill 的进程内 gochannel；换成其他 watermill Publisher/Subscriber
// （NATS、Kafka 等）不需要改动发布与消费逻辑。
package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

// DefaultTopic 是浏览事件的 topic。
const DefaultTopic = "product.viewed"

// NewGoChannel 创建进程内 pub/sub。persistent 为 true 时后订阅者也能收到历史消息（测试用）。
func NewGoChannel(buffer int64, persistent bool, log zerolog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
		Persistent:          persistent,
	}, NewLogger(log))
}

// Publisher 实现 core.ViewObserver：每次浏览发布一条 JSON 消息。
// 发布失败只记录日志，不影响浏览记录本身。
type Publisher struct {
	pub   message.Publisher
	topic string
	log   zerolog.Logger
}

func NewPublisher(pub message.Publisher, topic string, log zerolog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		pub:   pub,
		topic: topic,
		log:   log.With().Str("component", "events").Str("topic", topic).Logger(),
	}
}

func (p *Publisher) ProductViewed(ctx context.Context, ev core.ViewEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal view event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("product_id", ev.ProductID)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		p.log.Warn().Err(err).Str("product_id", ev.ProductID).Msg("publish view event failed")
	}
}
