// Package queue provides the work queue used to decouple sync-job
// triggers from their processing. Delivery is at-least-once; consumers
// must be idempotent.
package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Handler processes one dequeued payload. A returned error is logged by
// the queue; the message is not redelivered by the memory implementation.
type Handler func(ctx context.Context, payload []byte) error

// Queue is the enqueue/consume contract.
type Queue interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
	// Consume starts a background consumer for the topic. It returns
	// once the consumer is running; processing continues until ctx is
	// cancelled.
	Consume(ctx context.Context, topic string, h Handler) error
	Close() error
}

// MemoryQueue is a channel-backed queue for tests and single-process
// deployments.
type MemoryQueue struct {
	mu     sync.Mutex
	topics map[string]chan []byte
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewMemoryQueue returns an empty in-process queue.
func NewMemoryQueue(logger *slog.Logger) *MemoryQueue {
	return &MemoryQueue{
		topics: make(map[string]chan []byte),
		logger: logger,
	}
}

func (q *MemoryQueue) channel(topic string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.topics[topic]
	if !ok {
		ch = make(chan []byte, 1024)
		q.topics[topic] = ch
	}
	return ch
}

func (q *MemoryQueue) Enqueue(ctx context.Context, topic string, payload []byte) error {
	select {
	case q.channel(topic) <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, topic string, h Handler) error {
	ch := q.channel(topic)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-ch:
				if err := h(ctx, payload); err != nil {
					q.logger.Error("queue handler failed", "topic", topic, "err", err)
				}
			}
		}
	}()
	return nil
}

// Close waits for consumers started with a cancelled context to drain.
func (q *MemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}
