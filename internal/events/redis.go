package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel downstream indexers subscribe to.
const Channel = "vault.events"

// RedisSink publishes events as JSON on a Redis pub/sub channel. Publishing
// is best-effort: failures are logged and dropped.
type RedisSink struct {
	cache  *redis.Client
	logger *slog.Logger
}

// NewRedisSink constructs a Redis pub/sub sink.
func NewRedisSink(cache *redis.Client, logger *slog.Logger) *RedisSink {
	return &RedisSink{cache: cache, logger: logger}
}

func (s *RedisSink) Emit(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("encode event", "kind", event.Kind, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.cache.Publish(pubCtx, Channel, payload).Err(); err != nil {
		s.logger.Warn("publish event", "kind", event.Kind, "error", err)
	}
}
