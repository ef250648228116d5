package shop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// PayFunc performs the payment step for one customer. It runs while the
// caller holds the payment token.
type PayFunc func(ctx context.Context, c *Customer) error

type paymentJob struct {
	c      *Customer
	barber int // barber who cut the customer's hair
}

// PaymentCounter is the single card terminal. Customers wait in a FIFO;
// whichever barber holds the token pays the whole line, including anyone who
// joins while it is draining, before handing the token back. A barber that
// finds the token taken leaves its customer in line and goes back to work.
type PaymentCounter struct {
	log *zap.Logger

	mu    sync.Mutex
	queue fifo[paymentJob]

	token *semaphore.Weighted
	pay   PayFunc
	gate  *Gate
	em    *emitter
	tally *tally

	paying     atomic.Pointer[Customer]
	holders    atomic.Int32
	maxHolders atomic.Int32
	pending    atomic.Int32
}

func newPaymentCounter(log *zap.Logger, gate *Gate, pay PayFunc, em *emitter) *PaymentCounter {
	return &PaymentCounter{
		log:   log.Named("payment"),
		token: semaphore.NewWeighted(1),
		pay:   pay,
		gate:  gate,
		em:    em,
	}
}

// Enqueue puts c at the tail of the payment line. barber is the barber who
// finished the cut. leaveChair, when non-nil, runs inside the same critical
// section before the event is emitted.
func (p *PaymentCounter) Enqueue(c *Customer, barber int, leaveChair func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue.push(paymentJob{c: c, barber: barber})
	p.pending.Store(int32(p.queue.len()))
	p.tally.move(c, AwaitingPayment)
	if leaveChair != nil {
		leaveChair()
	}
	p.em.emit(EventCutFinished, c, barber)
}

// Collect tries to take the token for barber. On success it pays customers
// until the line is empty and returns how many it paid. If another barber
// holds the token Collect returns immediately with zero.
//
// After releasing the token the line is checked again: a customer enqueued
// after the last pop but before the release would otherwise have no barber
// left to pay it.
func (p *PaymentCounter) Collect(ctx context.Context, barber int) (int, error) {
	total := 0
	for {
		if !p.token.TryAcquire(1) {
			p.log.Debug("token held elsewhere; leaving line to holder", zap.Int("barber", barber))
			return total, nil
		}

		n, err := p.drain(ctx, barber)
		total += n
		if err != nil {
			return total, err
		}

		if p.Pending() == 0 {
			return total, nil
		}
	}
}

// drain pays every queued customer. The token is released on every path.
func (p *PaymentCounter) drain(ctx context.Context, barber int) (paid int, err error) {
	h := p.holders.Add(1)
	for {
		m := p.maxHolders.Load()
		if h <= m || p.maxHolders.CompareAndSwap(m, h) {
			break
		}
	}
	defer func() {
		p.holders.Add(-1)
		p.token.Release(1)
	}()

	for {
		p.mu.Lock()
		job, ok := p.queue.pop()
		if ok {
			p.paying.Store(job.c)
		}
		p.pending.Store(int32(p.queue.len()))
		p.mu.Unlock()
		if !ok {
			return paid, nil
		}

		p.em.emit(EventPaymentStarted, job.c, barber)
		if err := p.pay(ctx, job.c); err != nil {
			p.mu.Lock()
			p.queue.pushFront(job)
			p.paying.Store(nil)
			p.pending.Store(int32(p.queue.len()))
			p.mu.Unlock()
			return paid, fmt.Errorf("payment for %s: %w", job.c.ID, err)
		}
		p.em.emit(EventPaid, job.c, barber)

		p.gate.Depart(job.c)
		p.paying.Store(nil)
		p.em.emit(EventDeparted, job.c, job.barber)
		paid++
	}
}

// Paying returns the customer whose payment is in progress, or nil. That
// customer is no longer in Line but is still AwaitingPayment.
func (p *PaymentCounter) Paying() *Customer { return p.paying.Load() }

// Pending returns the number of customers waiting to pay.
func (p *PaymentCounter) Pending() int { return int(p.pending.Load()) }

// Holders returns how many barbers hold the token right now.
func (p *PaymentCounter) Holders() int32 { return p.holders.Load() }

// MaxHolders returns the highest number of simultaneous token holders ever
// observed.
func (p *PaymentCounter) MaxHolders() int32 { return p.maxHolders.Load() }

// Line returns the customers waiting to pay, head first.
func (p *PaymentCounter) Line() []*Customer {
	p.mu.Lock()
	defer p.mu.Unlock()

	jobs := p.queue.snapshot()
	out := make([]*Customer, len(jobs))
	for i, j := range jobs {
		out[i] = j.c
	}
	return out
}
