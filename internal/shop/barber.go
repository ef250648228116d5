package shop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PayRetryDelay is how long a barber waits before retrying a failed payment.
var PayRetryDelay = 100 * time.Millisecond

// BarberState is the phase of a barber's work cycle.
type BarberState int32

const (
	Resting BarberState = iota
	Cutting
	Collecting
)

func (s BarberState) String() string {
	switch s {
	case Resting:
		return "resting"
	case Cutting:
		return "cutting"
	case Collecting:
		return "collecting"
	default:
		return "unknown"
	}
}

// Barber cycles Resting → Cutting → Collecting → Resting until its context
// is cancelled.
//
//	Resting:    waits on the couch; sleeps while it is empty
//	Cutting:    customer in the chair for a bounded random duration
//	Collecting: customer joins the payment line; the barber pays the line
//	            if it wins the token
type Barber struct {
	ID int

	log     *zap.Logger
	room    *WaitingRoom
	counter *PaymentCounter
	cutTime func() time.Duration
	em      *emitter

	state atomic.Int32
	chair atomic.Pointer[Customer]
	cuts  atomic.Int64
}

func newBarber(id int, log *zap.Logger, room *WaitingRoom, counter *PaymentCounter, cutTime func() time.Duration, em *emitter) *Barber {
	return &Barber{
		ID:      id,
		log:     log.Named("barber").With(zap.Int("barber", id)),
		room:    room,
		counter: counter,
		cutTime: cutTime,
		em:      em,
	}
}

// Run executes the work cycle. It returns nil when ctx is cancelled or the
// room is closed. A failed payment step is logged and retried; the customer
// keeps the head of the payment line meanwhile.
func (b *Barber) Run(ctx context.Context) error {
	b.log.Info("barber started")
	defer b.log.Info("barber stopped")

	onSleep := func() { b.em.emit(EventBarberSleeping, nil, b.ID) }
	seat := func(c *Customer) {
		b.chair.Store(c)
		b.state.Store(int32(Cutting))
	}
	leaveChair := func() {
		b.chair.Store(nil)
		b.state.Store(int32(Collecting))
	}

	for {
		b.state.Store(int32(Resting))

		c, err := b.room.NextForService(ctx, b.ID, onSleep, seat)
		if err != nil {
			b.log.Debug("wait for customer interrupted", zap.Error(err))
			return nil
		}
		b.em.emit(EventCutStarted, c, b.ID)

		if err := sleepCtx(ctx, b.cutTime()); err != nil {
			b.log.Warn("cut interrupted", zap.String("customer", c.Name), zap.Error(err))
			return nil
		}
		b.cuts.Add(1)

		b.counter.Enqueue(c, b.ID, leaveChair)

		if err := b.collect(ctx); err != nil {
			b.log.Debug("payment interrupted", zap.Error(err))
			return nil
		}
	}
}

// collect pays the line if the token is free. Failed payments are retried
// after PayRetryDelay; only a context error ends it.
func (b *Barber) collect(ctx context.Context) error {
	for {
		paid, err := b.counter.Collect(ctx, b.ID)
		if err == nil {
			if paid > 0 {
				b.log.Debug("payment line drained", zap.Int("paid", paid))
			}
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		b.log.Error("payment failed; retrying", zap.Int("paid", paid), zap.Error(err))
		if err := sleepCtx(ctx, PayRetryDelay); err != nil {
			return err
		}
	}
}

// State returns the barber's current phase.
func (b *Barber) State() BarberState { return BarberState(b.state.Load()) }

// Chair returns the customer in the barber's chair, or nil.
func (b *Barber) Chair() *Customer { return b.chair.Load() }

// Cuts returns the number of haircuts finished.
func (b *Barber) Cuts() int64 { return b.cuts.Load() }

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
