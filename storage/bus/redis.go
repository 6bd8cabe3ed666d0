// Package bus fans domain events out to live subscribers. The redis
// implementation lets every API instance see events published by its peers.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/codesage/codesage/core"
)

const channelPrefix = "events:"

type redisBus struct {
	client *redis.Client
	logger core.Logger
}

var _ core.Bus = (*redisBus)(nil) // interface compliance check

func NewRedisBus(client *redis.Client, logger core.Logger) core.Bus {
	return &redisBus{client: client, logger: logger}
}

func (b *redisBus) Publish(ctx context.Context, ev core.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshaling event")
	}
	return errors.Wrap(
		b.client.Publish(ctx, channelPrefix+ev.Topic, raw).Err(),
		"publishing event")
}

func (b *redisBus) Subscribe(ctx context.Context, topic string) (core.Subscription, error) {
	sub := b.client.Subscribe(ctx, channelPrefix+topic)

	// ensures the subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "subscribing")
	}

	out := make(chan core.Event, 16)
	rs := &redisSubscription{sub: sub, c: out}

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev core.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.logger.Warn(fmt.Sprintf("bad event payload on %s: %v", m.Channel, err), err)
					continue
				}
				select {
				case out <- ev:
				default:
					// slow subscriber, drop
				}
			}
		}
	}()

	return rs, nil
}

func (b *redisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	sub *redis.PubSub
	c   chan core.Event
}

func (s *redisSubscription) C() <-chan core.Event { return s.c }
func (s *redisSubscription) Close() error         { return s.sub.Close() }
