package queue

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryQueueDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(slog.Default())
	got := make(chan string, 2)
	err := q.Consume(ctx, "jobs", func(ctx context.Context, payload []byte) error {
		got <- string(payload)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, "jobs", []byte("a")))
	require.NoError(t, q.Enqueue(ctx, "jobs", []byte("b")))

	select {
	case v := <-got:
		require.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("first payload not delivered")
	}
	select {
	case v := <-got:
		require.Equal(t, "b", v)
	case <-time.After(time.Second):
		t.Fatal("second payload not delivered")
	}
}

func TestMemoryQueueTopicsAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(slog.Default())
	got := make(chan string, 1)
	require.NoError(t, q.Consume(ctx, "jobs", func(ctx context.Context, payload []byte) error {
		got <- string(payload)
		return nil
	}))

	require.NoError(t, q.Enqueue(ctx, "other", []byte("x")))
	require.NoError(t, q.Enqueue(ctx, "jobs", []byte("y")))

	select {
	case v := <-got:
		require.Equal(t, "y", v)
	case <-time.After(time.Second):
		t.Fatal("payload not delivered")
	}
}
