package shop

import (
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// Violation records a broken shop invariant together with the event that
// exposed it.
type Violation struct {
	Rule  string
	Event Event
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (after %s #%d)", v.Rule, v.Event.Kind, v.Event.Seq)
}

// InvariantMonitor checks the facility bounds after every event. It only
// uses lock-free probes and the location tally because it runs inside other
// components' critical sections.
type InvariantMonitor struct {
	log  *zap.Logger
	shop *Shop

	mu         sync.Mutex
	violations []Violation
}

// readings are the values a check was computed from.
type readings struct {
	Event     Event
	CouchLen  int32
	Occupancy int64
	Placed    int64
	Holders   int32
}

func newInvariantMonitor(log *zap.Logger, s *Shop) *InvariantMonitor {
	return &InvariantMonitor{log: log.Named("invariants"), shop: s}
}

func (m *InvariantMonitor) Notify(e Event) {
	r := readings{
		Event:    e,
		CouchLen: int32(m.shop.room.CouchLen()),
		Holders:  m.shop.counter.Holders(),
	}
	r.Placed, r.Occupancy = m.shop.tally.inside(m.shop.gate.Occupancy)

	var broken []string
	if r.CouchLen < 0 || r.CouchLen > CouchSeats {
		broken = append(broken, fmt.Sprintf("couch holds %d of %d seats", r.CouchLen, CouchSeats))
	}
	if r.Occupancy > m.shop.gate.Capacity() {
		broken = append(broken, fmt.Sprintf("occupancy %d above capacity %d", r.Occupancy, m.shop.gate.Capacity()))
	}
	if r.Placed != r.Occupancy {
		broken = append(broken, fmt.Sprintf("%d customers placed for occupancy %d", r.Placed, r.Occupancy))
	}
	if r.Holders > PaymentStations {
		broken = append(broken, fmt.Sprintf("%d concurrent payment holders", r.Holders))
	}
	if len(broken) == 0 {
		return
	}

	dump := spew.Sdump(r)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rule := range broken {
		m.violations = append(m.violations, Violation{Rule: rule, Event: e})
		m.log.Error("invariant violated",
			zap.String("rule", rule),
			zap.String("state", dump))
	}
}

// Violations returns a copy of everything recorded so far.
func (m *InvariantMonitor) Violations() []Violation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Violation, len(m.violations))
	copy(out, m.violations)
	return out
}
