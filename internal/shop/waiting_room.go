package shop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by blocking calls once the shop is shutting down.
var ErrClosed = errors.New("shop closed")

// WaitingRoom holds admitted customers before service: a bounded couch and
// an unbounded standing area, both FIFO.
//
// Both areas live behind one monitor. Serving the couch head and promoting
// the standing head into the freed slot is a single critical section, so the
// couch never appears to hold more than its capacity and a customer is never
// seen in both areas.
type WaitingRoom struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond // couch has at least one customer, or closed
	couchCap int
	couch    fifo[*Customer]
	standing fifo[*Customer]
	closed   bool

	couchLen atomic.Int32 // mirrors couch.len() for lock-free probes
	em       *emitter
	tally    *tally
}

func newWaitingRoom(couchCap int, em *emitter) *WaitingRoom {
	r := &WaitingRoom{
		couchCap: couchCap,
		em:       em,
	}
	r.nonEmpty = sync.NewCond(&r.mu)
	return r
}

// SeatOrStand places c on the couch if a slot is free, otherwise at the tail
// of the standing area, and reports where c ended up.
func (r *WaitingRoom) SeatOrStand(c *Customer) Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.couch.len() < r.couchCap {
		r.couch.push(c)
		r.couchLen.Store(int32(r.couch.len()))
		r.tally.move(c, Couch)
		r.em.emit(EventSeated, c, 0)
		r.nonEmpty.Signal()
		return Couch
	}

	r.standing.push(c)
	r.tally.move(c, Standing)
	r.em.emit(EventStanding, c, 0)
	return Standing
}

// NextForService hands the longest-seated couch customer to barber, blocking
// while the couch is empty. The longest-standing customer, if any, takes the
// freed couch slot in the same step. The returned customer is already
// InChair.
//
// onSleep, when non-nil, is called once with the lock held if the barber has
// to wait. seat, when non-nil, is called with the lock held as soon as the
// customer leaves the couch, so the customer is never in neither place.
func (r *WaitingRoom) NextForService(ctx context.Context, barber int, onSleep func(), seat func(*Customer)) (*Customer, error) {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.nonEmpty.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	slept := false
	for r.couch.len() == 0 && !r.closed && ctx.Err() == nil {
		if !slept && onSleep != nil {
			onSleep()
		}
		slept = true
		r.nonEmpty.Wait()
	}
	if r.closed || ctx.Err() != nil {
		return nil, ErrClosed
	}

	c, _ := r.couch.pop()
	r.tally.move(c, InChair)
	if seat != nil {
		seat(c)
	}

	if next, ok := r.standing.pop(); ok {
		r.couch.push(next)
		r.tally.move(next, Couch)
		r.em.emit(EventPromoted, next, barber)
	}
	r.couchLen.Store(int32(r.couch.len()))

	// Another barber may still find a customer after the promotion.
	if r.couch.len() > 0 {
		r.nonEmpty.Signal()
	}
	return c, nil
}

// Close wakes every waiting barber; subsequent NextForService calls fail
// with ErrClosed. Customers still waiting stay where they are.
func (r *WaitingRoom) Close() {
	r.mu.Lock()
	r.closed = true
	r.nonEmpty.Broadcast()
	r.mu.Unlock()
}

// Lens returns the current couch and standing sizes.
func (r *WaitingRoom) Lens() (couch, standing int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.couch.len(), r.standing.len()
}

// Queues returns copies of the couch and standing areas, head first.
func (r *WaitingRoom) Queues() (couch, standing []*Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.couch.snapshot(), r.standing.snapshot()
}

// CouchLen is a lock-free read of the couch size.
func (r *WaitingRoom) CouchLen() int { return int(r.couchLen.Load()) }
