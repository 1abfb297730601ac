package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stagehq/upload-validator/internal/config"
)

// RedisQueue implements Notifier over Redis streams. Each destination maps to
// one stream; the group key is carried as a field so consumers can partition
// without losing per-group ordering.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects and pings the Redis backing the notification
// channels.
func NewRedisQueue(cfg config.QueueConfig) (*RedisQueue, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisQueue{client: client}, nil
}

func buildRedisOptions(cfg config.QueueConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// Send appends the payload to the destination stream.
func (q *RedisQueue) Send(ctx context.Context, destination string, body []byte, groupKey string) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: destination,
		Values: map[string]interface{}{
			"group": groupKey,
			"body":  body,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("could not send message to %s: %w", destination, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var _ Notifier = (*RedisQueue)(nil)
