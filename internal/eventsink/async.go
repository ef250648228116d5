// Package eventsink forwards shop events to external systems without letting
// slow I/O reach the shop's critical sections.
package eventsink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	"go.uber.org/zap"
)

// Publisher delivers one event to an external system.
type Publisher interface {
	Publish(ctx context.Context, e shop.Event) error
}

// Async queues events in a bounded buffer and publishes them from a single
// goroutine. When the buffer is full new events are dropped and counted.
type Async struct {
	name    string
	log     *zap.Logger
	pub     Publisher
	ch      chan shop.Event
	timeout time.Duration

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewAsync wraps pub. size is the buffer length; timeout bounds a single
// Publish call.
func NewAsync(log *zap.Logger, name string, pub Publisher, size int, timeout time.Duration) *Async {
	if size <= 0 {
		size = 1024
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Async{
		name:    name,
		log:     log.Named("sink").Named(name),
		pub:     pub,
		ch:      make(chan shop.Event, size),
		timeout: timeout,
	}
}

// Notify implements shop.Notifier. It never blocks.
func (a *Async) Notify(e shop.Event) {
	select {
	case a.ch <- e:
	default:
		if n := a.dropped.Add(1); n == 1 || n%100 == 0 {
			a.log.Warn("sink buffer full; dropping events", zap.Int64("dropped", n))
		}
	}
}

// Run publishes queued events until ctx is cancelled. Publish failures are
// logged and counted; the event is not retried.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.log.Info("sink stopped",
				zap.Int64("published", a.published.Load()),
				zap.Int64("dropped", a.dropped.Load()),
				zap.Int64("failed", a.failed.Load()))
			return nil
		case e := <-a.ch:
			a.publish(ctx, e)
		}
	}
}

func (a *Async) publish(ctx context.Context, e shop.Event) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.pub.Publish(ctx, e); err != nil {
		a.failed.Add(1)
		a.log.Warn("publish failed", zap.Uint64("seq", e.Seq), zap.String("kind", string(e.Kind)), zap.Error(err))
		return
	}
	a.published.Add(1)
}

// Name returns the name the sink was created with.
func (a *Async) Name() string { return a.name }

// Stats returns published, dropped and failed counts.
func (a *Async) Stats() (published, dropped, failed int64) {
	return a.published.Load(), a.dropped.Load(), a.failed.Load()
}
