package shop

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestBarberWorkCycle(t *testing.T) {
	log := zaptest.NewLogger(t)
	rec := &recorder{}
	gate := NewGate(Capacity)
	em := newEmitter(rec, gate.Occupancy)
	room := newWaitingRoom(CouchSeats, em)

	paying := make(chan struct{})
	release := make(chan struct{})
	counter := newPaymentCounter(log, gate, func(ctx context.Context, _ *Customer) error {
		close(paying)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, em)

	cutting := make(chan struct{})
	b := newBarber(1, log, room, counter, func() time.Duration {
		close(cutting)
		return 0
	}, em)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	eventually(t, func() bool { return rec.count(EventBarberSleeping) == 1 }, "barber never slept on an empty couch")
	if b.State() != Resting || b.Chair() != nil {
		t.Fatalf("idle barber state = %s, chair = %v", b.State(), b.Chair())
	}

	c := NewCustomer("walk-in", time.Now())
	gate.TryAdmit(c)
	room.SeatOrStand(c)

	<-cutting
	<-paying
	if b.State() != Collecting {
		t.Fatalf("state while paying = %s, want collecting", b.State())
	}
	if b.Chair() != nil {
		t.Error("chair still occupied while the customer pays")
	}
	if c.Location() != AwaitingPayment {
		t.Errorf("customer location = %s, want awaiting_payment", c.Location())
	}

	close(release)
	eventually(t, func() bool { return rec.count(EventBarberSleeping) == 2 }, "barber did not go back to sleep")
	if c.Location() != Departed || gate.Occupancy() != 0 {
		t.Fatalf("customer %s, occupancy %d after payment", c.Location(), gate.Occupancy())
	}
	if b.Cuts() != 1 {
		t.Errorf("cuts = %d, want 1", b.Cuts())
	}

	order := []EventKind{EventCutStarted, EventCutFinished, EventPaymentStarted, EventPaid, EventDeparted}
	var got []EventKind
	for _, e := range rec.all() {
		if e.CustomerID == c.ID && e.Barber == 1 {
			got = append(got, e.Kind)
		}
	}
	if len(got) != len(order) {
		t.Fatalf("barber events = %v, want %v", got, order)
	}
	for i := range order {
		if got[i] != order[i] {
			t.Fatalf("barber events = %v, want %v", got, order)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("barber did not stop")
	}
}

func TestBarberStopsDuringCut(t *testing.T) {
	log := zaptest.NewLogger(t)
	gate := NewGate(Capacity)
	em := newEmitter(nil, gate.Occupancy)
	room := newWaitingRoom(CouchSeats, em)
	counter := newPaymentCounter(log, gate, func(context.Context, *Customer) error { return nil }, em)
	b := newBarber(1, log, room, counter, func() time.Duration { return time.Hour }, em)

	c := NewCustomer("slow", time.Now())
	gate.TryAdmit(c)
	room.SeatOrStand(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	eventually(t, func() bool { return b.State() == Cutting }, "barber never started cutting")
	if b.Chair() != c {
		t.Fatal("chair does not hold the customer being cut")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("barber did not stop mid-cut")
	}
}
