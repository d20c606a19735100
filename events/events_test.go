package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

func TestPublisher_PublishesJSON(t *testing.T) {
	pubsub := NewGoChannel(16, true, zerolog.Nop())
	defer pubsub.Close()

	p := NewPublisher(pubsub, "", zerolog.Nop())
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.ProductViewed(context.Background(), core.ViewEvent{UserID: "v1", ProductID: "3", At: at})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := pubsub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		var ev core.ViewEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		assert.Equal(t, "v1", ev.UserID)
		assert.Equal(t, "3", ev.ProductID)
		assert.True(t, at.Equal(ev.At))
		assert.Equal(t, "3", msg.Metadata.Get("product_id"))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("closed") }
func (failingPublisher) Close() error                              { return nil }

func TestPublisher_FailureIsAbsorbed(t *testing.T) {
	p := NewPublisher(failingPublisher{}, "x", zerolog.Nop())
	assert.NotPanics(t, func() {
		p.ProductViewed(context.Background(), core.ViewEvent{ProductID: "1"})
	})
}

func TestViewCounter(t *testing.T) {
	pubsub := NewGoChannel(16, true, zerolog.Nop())
	defer pubsub.Close()
	counts := store.NewMemoryStore(store.WithCleanupInterval(0))
	defer counts.Close()

	p := NewPublisher(pubsub, DefaultTopic, zerolog.Nop())
	for _, id := range []string{"1", "2", "1"} {
		p.ProductViewed(context.Background(), core.ViewEvent{UserID: "v", ProductID: id, At: time.Now()})
	}
	// 非法消息被丢弃，不影响后续计数
	require.NoError(t, pubsub.Publish(DefaultTopic, message.NewMessage(watermill.NewUUID(), []byte("{oops"))))

	counter := NewViewCounter(pubsub, DefaultTopic, counts, zerolog.Nop())
	assert.Equal(t, "view-counter", counter.String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- counter.Serve(ctx) }()

	require.Eventually(t, func() bool { return counter.Processed() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return counter.malformed.Load() == 1 }, time.Second, 10*time.Millisecond)

	n, err := counter.Count(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = counter.Count(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = counter.Count(context.Background(), "9")
	require.NoError(t, err)
	assert.Zero(t, n)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestZerologAdapter(t *testing.T) {
	l := NewLogger(zerolog.Nop())
	assert.NotPanics(t, func() {
		l.With(watermill.LogFields{"a": 1}).Info("hello", watermill.LogFields{"b": 2})
		l.Error("bad", errors.New("x"), nil)
		l.Debug("d", nil)
		l.Trace("t", nil)
	})
}
