// Package shop implements Hilzer's barbershop: a capacity gate, a couch and
// standing area with FIFO promotion, barbers running a sleep/cut/collect
// cycle, and a single payment terminal.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fixed facility layout.
const (
	CouchSeats      = 4
	Capacity        = 20
	BarberCount     = 3
	PaymentStations = 1
)

// Timing bounds the simulated durations. Zero values are valid and make the
// corresponding step instantaneous.
type Timing struct {
	CutMin time.Duration
	CutMax time.Duration
	PayMin time.Duration
	PayMax time.Duration
}

// DefaultTiming is the pacing used by the binary.
var DefaultTiming = Timing{
	CutMin: 2 * time.Second,
	CutMax: 6 * time.Second,
	PayMin: 500 * time.Millisecond,
	PayMax: 1500 * time.Millisecond,
}

type Options struct {
	Timing Timing

	// Notifier receives every status change. Optional.
	Notifier Notifier

	// Pay replaces the default payment step (a random pause within
	// Timing.PayMin..PayMax).
	Pay PayFunc
}

// Shop wires the gate, waiting room, payment counter and barbers together.
type Shop struct {
	log *zap.Logger

	gate    *Gate
	room    *WaitingRoom
	counter *PaymentCounter
	barbers []*Barber
	monitor *InvariantMonitor
	em      *emitter
	tally   *tally
}

// New builds a shop with the fixed layout. Barbers do not start until Run.
func New(log *zap.Logger, opts Options) *Shop {
	log = log.Named("shop")

	s := &Shop{
		log:   log,
		gate:  NewGate(Capacity),
		tally: &tally{},
	}
	s.gate.tally = s.tally
	s.monitor = newInvariantMonitor(log, s)

	notifiers := Notifiers{s.monitor}
	if opts.Notifier != nil {
		notifiers = append(notifiers, opts.Notifier)
	}
	s.em = newEmitter(notifiers, s.gate.Occupancy)

	pay := opts.Pay
	if pay == nil {
		payTime := uniform(opts.Timing.PayMin, opts.Timing.PayMax)
		pay = func(ctx context.Context, _ *Customer) error { return sleepCtx(ctx, payTime()) }
	}

	s.room = newWaitingRoom(CouchSeats, s.em)
	s.room.tally = s.tally
	s.counter = newPaymentCounter(log, s.gate, pay, s.em)
	s.counter.tally = s.tally

	cutTime := uniform(opts.Timing.CutMin, opts.Timing.CutMax)
	for i := 1; i <= BarberCount; i++ {
		s.barbers = append(s.barbers, newBarber(i, log, s.room, s.counter, cutTime, s.em))
	}
	return s
}

// Admit runs an arriving customer through the capacity gate and, when
// admitted, into the waiting room.
func (s *Shop) Admit(c *Customer) Admission {
	s.em.emit(EventArrived, c, 0)

	if s.gate.TryAdmit(c) == Rejected {
		s.em.emit(EventRejected, c, 0)
		return Rejected
	}
	s.em.emit(EventAdmitted, c, 0)
	s.room.SeatOrStand(c)
	return Admitted
}

// Run starts every barber and feeds arrivals from src into the shop until
// ctx is cancelled. A nil src runs the barbers only; customers then come in
// through Admit. Cancellation is a normal exit and returns nil.
func (s *Shop) Run(ctx context.Context, src ArrivalSource) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, b := range s.barbers {
		g.Go(func() error { return b.Run(ctx) })
	}

	if src != nil {
		g.Go(func() error { return s.admitLoop(ctx, src) })
	}

	g.Go(func() error {
		<-ctx.Done()
		s.room.Close()
		return nil
	})

	s.log.Info("shop open",
		zap.Int("barbers", len(s.barbers)),
		zap.Int("couch_seats", CouchSeats),
		zap.Int64("capacity", s.gate.Capacity()))

	err := g.Wait()

	var left []string
	for _, c := range s.gate.occupants() {
		left = append(left, c.Name+" ("+c.Location().String()+")")
	}
	s.log.Info("shop closed",
		zap.Int64("occupancy", s.gate.Occupancy()),
		zap.Strings("left_inside", left))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shop run: %w", err)
	}
	return nil
}

func (s *Shop) admitLoop(ctx context.Context, src ArrivalSource) error {
	for {
		c, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("arrival source: %w", err)
		}
		s.Admit(c)
	}
}

// Gate exposes the capacity gate for read-only inspection.
func (s *Shop) Gate() *Gate { return s.gate }

// Room exposes the waiting room for read-only inspection.
func (s *Shop) Room() *WaitingRoom { return s.room }

// Counter exposes the payment counter for read-only inspection.
func (s *Shop) Counter() *PaymentCounter { return s.counter }

// Barbers returns the shop's barbers ordered by ID.
func (s *Shop) Barbers() []*Barber { return s.barbers }

// Violations returns the invariant violations observed so far.
func (s *Shop) Violations() []Violation { return s.monitor.Violations() }
