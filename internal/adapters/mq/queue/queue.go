// Package queue defines the contract for enqueuing and consuming
// notifications awaiting dispatch.
//
// The in-memory implementation is a bounded channel: enqueue never blocks,
// and a full queue sheds load instead of stalling request handlers.
package queue

import (
	"context"
	"sync"

	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Notification is the payload type flowing through the queue.
type Notification = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification to the queue.
	// Returns false if the queue is full or closed and the notice was dropped.
	Enqueue(ctx context.Context, n Notification) bool

	// Dequeue returns a channel that receives notifications as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Notification

	// Len returns the current number of queued notifications.
	Len(ctx context.Context) int

	// Close shuts down the queue. After closing, no new notifications can
	// be enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	notices  chan Notification
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.notices = make(chan Notification, q.capacity)
	metrics.UpdateNotificationQueueSize(0)
	return q
}

// Enqueue adds a notification to the queue. Never blocks.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotificationDropped()
		return false
	}

	select {
	case q.notices <- n:
		metrics.RecordNotificationEnqueued()
		metrics.UpdateNotificationQueueSize(len(q.notices))
		return true
	case <-ctx.Done():
		metrics.RecordNotificationDropped()
		return false
	default:
		metrics.RecordNotificationDropped()
		return false
	}
}

// Dequeue returns a channel that receives notifications as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for n := range q.notices {
			select {
			case out <- n:
				metrics.UpdateNotificationQueueSize(len(q.notices))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.notices)
	metrics.UpdateNotificationQueueSize(size)
	return size
}

// Close shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.notices)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
