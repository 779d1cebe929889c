// Package realtime broadcasts entity change notifications over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Channel carries every change event.
const Channel = "eventdesk.changes"

// Operations reported in a Change.
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// Change identifies a modified record.
type Change struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Op     string `json:"op"`
}

// Publisher emits change events.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// RedisPublisher publishes changes on Channel.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewPublisher wraps a Redis client.
func NewPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish encodes change and sends it to subscribers.
func (p *RedisPublisher) Publish(ctx context.Context, change Change) error {
	if p == nil || p.client == nil {
		return errors.New("realtime: publisher not configured")
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("realtime: encode change: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}

// Subscription delivers decoded change events until closed.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Change
	done   chan struct{}
	once   sync.Once
}

// Subscribe listens on Channel. The subscription is confirmed before it returns.
func Subscribe(ctx context.Context, client redis.UniversalClient) (*Subscription, error) {
	pubsub := client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("realtime: subscribe: %w", err)
	}
	sub := &Subscription{pubsub: pubsub, events: make(chan Change, 16), done: make(chan struct{})}
	go sub.pump()
	return sub, nil
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscription) Events() <-chan Change {
	return s.events
}

// Close stops the subscription. Pending sends are abandoned, so a listener
// that has stopped reading never blocks the pump.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *Subscription) pump() {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			continue
		}
		select {
		case s.events <- change:
		case <-s.done:
			return
		}
	}
}

// Discard drops every change. It stands in when Redis is not configured.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, Change) error { return nil }
