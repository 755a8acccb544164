package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const popTimeout = 5 * time.Second

// RedisQueue is a Redis-list-backed queue: RPUSH to enqueue, BLPOP to
// consume. Keys are prefixed so several deployments can share an
// instance.
type RedisQueue struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisQueue wraps an existing Redis client.
func NewRedisQueue(client *redis.Client, prefix string, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{client: client, prefix: prefix, logger: logger}
}

func (q *RedisQueue) key(topic string) string {
	return q.prefix + ":" + topic
}

func (q *RedisQueue) Enqueue(ctx context.Context, topic string, payload []byte) error {
	if err := q.client.RPush(ctx, q.key(topic), payload).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", topic, err)
	}
	return nil
}

func (q *RedisQueue) Consume(ctx context.Context, topic string, h Handler) error {
	key := q.key(topic)
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			vals, err := q.client.BLPop(ctx, popTimeout, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				q.logger.Error("blpop failed", "topic", topic, "err", err)
				// Back off briefly so a dead Redis doesn't spin the loop.
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			if len(vals) < 2 {
				continue
			}
			if err := h(ctx, []byte(vals[1])); err != nil {
				q.logger.Error("queue handler failed", "topic", topic, "err", err)
			}
		}
	}()
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
