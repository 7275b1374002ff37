package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis stream sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// Redis appends each record to a Redis stream with XADD.
type Redis struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisWithClient(client, opts.Stream, opts.MaxLen), nil
}

// NewRedisWithClient wraps an existing client. maxLen <= 0 leaves the
// stream untrimmed.
func NewRedisWithClient(client *redis.Client, stream string, maxLen int64) *Redis {
	return &Redis{client: client, stream: stream, maxLen: maxLen}
}

// Name implements Sink.
func (r *Redis) Name() string { return "redis" }

// Write implements Sink.
func (r *Redis) Write(ctx context.Context, rec Record) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"event":   rec.Name,
			"time":    rec.Time.UTC().Format(time.RFC3339Nano),
			"payload": string(rec.Payload),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error { return r.client.Close() }
