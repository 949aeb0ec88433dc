// Package worker defines dispatcher contracts for asynchronous
// notification delivery.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/pkg/logger"
	"github.com/cityfix/cityfix/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Notification abstracts what dispatchers read off the queue.
type Notification = model.Notification

// Sender delivers one notification to its recipient.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Queue defines how dispatchers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Dispatcher drains the queue and hands notifications to the sender.
type Dispatcher struct {
	queue  Queue
	sender Sender
	name   string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(queue Queue, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    queue,
		sender:   sender,
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("dispatcher"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}

	return d
}

// Run starts the dispatch loop until ctx is canceled, shutdown is
// signaled, or the queue closes.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	in := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			if err := d.deliver(ctx, n); err != nil {
				d.logger.Error(ctx, "notification delivery failed",
					logger.String("notification", n.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the dispatcher. Idempotent; repeated calls
// just wait for the loop to exit.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.shutdown) })

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver hands one notification to the sender.
func (d *Dispatcher) deliver(ctx context.Context, n Notification) error {
	if err := d.sender.Send(ctx, n); err != nil {
		metrics.RecordNotificationError()
		return fmt.Errorf("send notification %s: %w", n.ID, err)
	}
	metrics.RecordNotificationDelivered()
	return nil
}

// Pool manages multiple dispatchers draining one queue.
type Pool struct {
	dispatchers []*Dispatcher
	queue       Queue

	logger logger.Logger
}

// NewPool creates a dispatcher pool.
func NewPool(workerCount int, queue Queue, sender Sender) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		dispatchers: make([]*Dispatcher, workerCount),
		queue:       queue,
		logger:      logger.Get().Named("dispatch-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.dispatchers[i] = NewDispatcher(queue, sender,
			WithName("dispatcher-"+strconv.Itoa(i)))
	}

	return p
}

// Start starts all dispatchers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, d := range p.dispatchers {
		go d.Run(ctx)
	}
}

// Stop halts all dispatchers without draining the queue. Safe to call
// before or after Shutdown; pending notices stay enqueued.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for _, d := range p.dispatchers {
		_ = d.Shutdown(ctx)
	}
}

// Shutdown closes the queue, lets dispatchers drain, then stops them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, d := range p.dispatchers {
		select {
		case <-d.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "dispatcher shutdown timed out", logger.Int("dispatcher", i))
		}
	}

	return nil
}
