package shop

import (
	"sync"
	"sync/atomic"
)

// Admission is the outcome of Gate.TryAdmit.
type Admission int

const (
	Rejected Admission = iota
	Admitted
)

func (a Admission) String() string {
	if a == Admitted {
		return "admitted"
	}
	return "rejected"
}

// Gate is the shop's capacity semaphore with explicit ownership. Every
// admitted customer holds exactly one slot, keyed by its ID, from admission
// until departure. Chairs, couch, standing area and the payment line all
// count against the same ceiling.
type Gate struct {
	mu         sync.Mutex
	maxCap     int64
	usage      atomic.Int64 // written under mu, read lock-free by observers
	acquiredBy map[string]*Customer

	admitted atomic.Int64
	rejected atomic.Int64
	departed atomic.Int64

	tally *tally
}

// NewGate initializes a gate with the given ceiling.
func NewGate(max int64) *Gate {
	return &Gate{
		maxCap:     max,
		acquiredBy: make(map[string]*Customer),
	}
}

// TryAdmit atomically checks the ceiling and takes a slot for c.
// Admitting an ID that already holds a slot is a protocol violation.
func (g *Gate) TryAdmit(c *Customer) Admission {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, holds := g.acquiredBy[c.ID]; holds {
		panic("gate: customer already holds a slot")
	}

	if g.usage.Load() >= g.maxCap {
		g.rejected.Add(1)
		return Rejected
	}

	g.tally.admit(func() { g.usage.Add(1) })
	g.acquiredBy[c.ID] = c
	g.admitted.Add(1)
	return Admitted
}

// Depart frees the slot owned by c and marks c Departed.
// Departing a customer that holds no slot is an invariant violation.
func (g *Gate) Depart(c *Customer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, holds := g.acquiredBy[c.ID]; !holds {
		panic("gate: depart for customer without a slot")
	}

	delete(g.acquiredBy, c.ID)
	g.tally.depart(c, func() { g.usage.Add(-1) })
	g.departed.Add(1)
}

// occupants returns every customer currently holding a slot.
func (g *Gate) occupants() []*Customer {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Customer, 0, len(g.acquiredBy))
	for _, c := range g.acquiredBy {
		out = append(out, c)
	}
	return out
}

// Capacity returns the configured ceiling.
func (g *Gate) Capacity() int64 { return g.maxCap }

// Occupancy returns the number of customers inside. Lock-free.
func (g *Gate) Occupancy() int64 { return g.usage.Load() }

// Totals returns lifetime admitted, rejected and departed counts.
func (g *Gate) Totals() (admitted, rejected, departed int64) {
	return g.admitted.Load(), g.rejected.Load(), g.departed.Load()
}
