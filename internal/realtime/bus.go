package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus relays broadcasts between server processes.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe calls handler for every envelope until ctx is done.
	Subscribe(ctx context.Context, handler func(Envelope)) error
	Close() error
}

// RedisBus is a Bus over a Redis pub/sub channel.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewRedisBus publishes and subscribes on channel.
func NewRedisBus(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, handler func(Envelope)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("Dropping malformed envelope", zap.Error(err))
				continue
			}
			handler(env)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
