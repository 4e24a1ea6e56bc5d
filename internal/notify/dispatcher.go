package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/remediz/internal/logger"
)

// Dispatcher sends events to a Sink in the background. Sends never block
// the caller; when the concurrency limit is reached the event is dropped
// and logged. Delivery errors are logged and discarded.
type Dispatcher struct {
	sink    Sink
	log     *logger.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	g      errgroup.Group

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher running at most limit deliveries at
// once, each bounded by timeout.
func NewDispatcher(sink Sink, limit int, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{sink: sink, log: log, timeout: timeout, ctx: ctx, cancel: cancel}
	d.g.SetLimit(limit)
	return d
}

// Viewing queues a viewing event.
func (d *Dispatcher) Viewing(ev ViewingEvent) {
	d.submit(KindViewing, ev.Title, func(ctx context.Context) error {
		return d.sink.Viewing(ctx, ev)
	})
}

// Finished queues a video-finished event.
func (d *Dispatcher) Finished(ev FinishedEvent) {
	d.submit(KindFinished, ev.Title, func(ctx context.Context) error {
		return d.sink.Finished(ctx, ev)
	})
}

func (d *Dispatcher) submit(kind, title string, send func(context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Debug("telemetry dropped after close", "kind", kind, "title", title)
		return
	}

	ok := d.g.TryGo(func() error {
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			d.log.Warn("telemetry delivery failed", "kind", kind, "title", title, "error", err)
		}
		// Failures never cancel sibling deliveries.
		return nil
	})
	if !ok {
		d.log.Warn("telemetry dropped", "kind", kind, "title", title, "reason", "too many in flight")
	}
}

// Close stops accepting events and waits for in-flight deliveries, giving
// up on them when ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
