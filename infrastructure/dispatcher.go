package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ats/domain"
)

const deliveryTimeout = 10 * time.Second

// Sink delivers one notification. It may block; the dispatcher calls it
// from worker goroutines only.
type Sink interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Dispatcher is a fire-and-forget domain.Notifier: Notify enqueues into a
// bounded buffer and returns, workers hand queued notifications to a Sink.
type Dispatcher struct {
	sink    Sink
	log     logrus.FieldLogger
	workers int
	queue   chan domain.Notification

	mu     sync.RWMutex
	closed bool

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewDispatcher(sink Sink, workers, buffer int, log logrus.FieldLogger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		sink:    sink,
		log:     log,
		workers: workers,
		queue:   make(chan domain.Notification, buffer),
	}
}

// Notify never blocks. A full buffer or a closed dispatcher drops the
// notification with a warning.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}
	select {
	case d.queue <- n:
	default:
		d.drop(n, "queue full")
	}
}

// Run starts the workers and blocks until ctx is cancelled or Close has
// been called and the queue is drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}
	return g.Wait()
}

// Close stops accepting notifications. Workers finish what is queued.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// Stats returns delivered, failed and dropped counts.
func (d *Dispatcher) Stats() (delivered, failed, dropped uint64) {
	return d.delivered.Load(), d.failed.Load(), d.dropped.Load()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case n, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, n)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, n); err != nil {
		d.failed.Add(1)
		d.log.WithFields(logrus.Fields{
			"notification": n.ID,
			"kind":         n.Kind,
			"recipient":    n.RecipientEmail,
		}).WithError(err).Warn("notification delivery failed")
		return
	}
	d.delivered.Add(1)
}

func (d *Dispatcher) drop(n domain.Notification, reason string) {
	d.dropped.Add(1)
	d.log.WithFields(logrus.Fields{
		"notification": n.ID,
		"kind":         n.Kind,
		"reason":       reason,
	}).Warn("notification dropped")
}
