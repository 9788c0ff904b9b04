package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBus fans messages out to every API instance through a Redis pub/sub channel
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBus creates a new Redis bus publishing to "channel"
func NewRedisBus(rdb *redis.Client, channel string, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With(zap.String("component", "redis_bus")),
	}
}

// Publish sends a message to all subscribed instances, including this one
func (b *RedisBus) Publish(ctx context.Context, msg Message) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and hands every received message to onMsg until ctx is done
func (b *RedisBus) StartForwarder(ctx context.Context, onMsg func(Message)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback is required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	// Receive blocks until the subscription is confirmed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("invalid message on redis channel", zap.Error(err))
					continue
				}
				onMsg(msg)
			}
		}
	}()

	b.logger.Info("redis forwarder started", zap.String("channel", b.channel))
	return nil
}
