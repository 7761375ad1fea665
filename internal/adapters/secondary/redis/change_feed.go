// Package redis carries ticket invalidation signals between instances over a
// Redis pub/sub channel. Each instance publishes after its own mutations and
// relays received signals into its local websocket hub, so clients connected
// anywhere see every change.
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/polizadesk/ticketboard/internal/config"
	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// ChangeFeed publishes invalidation signals to a Redis channel.
type ChangeFeed struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ ports.ChangeFeed = (*ChangeFeed)(nil)

// NewChangeFeed connects to Redis and verifies the connection.
func NewChangeFeed(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*ChangeFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.NewUpstreamError("redis.ping", err)
	}

	return &ChangeFeed{
		client:  client,
		channel: cfg.Channel,
		logger:  logger.With("component", "redis_change_feed"),
	}, nil
}

// Invalidate publishes the opaque invalidation signal. The payload carries no
// information; subscribers refetch rather than merge.
func (f *ChangeFeed) Invalidate(ctx context.Context) error {
	if err := f.client.Publish(ctx, f.channel, string(domain.EventTicketsInvalidated)).Err(); err != nil {
		return apperrors.NewUpstreamError("redis.publish", err)
	}
	return nil
}

// Ping checks the Redis connection for health probes.
func (f *ChangeFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (f *ChangeFeed) Close() error {
	return f.client.Close()
}

// Subscriber relays invalidation signals from the Redis channel into the
// local broadcaster.
type Subscriber struct {
	client      *redis.Client
	channel     string
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

// NewSubscriber creates a subscriber that feeds the given broadcaster.
func NewSubscriber(feed *ChangeFeed, broadcaster ports.EventBroadcaster, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:      feed.client,
		channel:     feed.channel,
		broadcaster: broadcaster,
		logger:      logger.With("component", "redis_subscriber"),
	}
}

// Run subscribes to the channel and relays messages until the context is
// cancelled. This MUST be run as a goroutine.
func (s *Subscriber) Run(ctx context.Context) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	s.logger.Info("subscribed to invalidation channel", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopping", "reason", ctx.Err())
			return

		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("subscription channel closed")
				return
			}

			// Any message on the channel means the snapshot changed.
			s.logger.Debug("relaying invalidation", "payload", msg.Payload)
			if err := s.broadcaster.Broadcast(domain.InvalidateEvent()); err != nil {
				s.logger.Warn("failed to relay invalidation", "error", err)
			}
		}
	}
}
