package shop

import "time"

// CustomerView is the read-only projection of a customer.
type CustomerView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ArrivedAt time.Time `json:"arrived_at"`
	Location  string    `json:"location"`
}

// BarberView is the read-only projection of a barber.
type BarberView struct {
	ID    int           `json:"id"`
	State string        `json:"state"`
	Chair *CustomerView `json:"chair,omitempty"`
	Cuts  int64         `json:"cuts"`
}

// Snapshot is a point-in-time view of the shop. Each section is read under
// its own component's lock, so totals across sections may be off by the
// customers moving between them at that instant.
type Snapshot struct {
	Occupancy         int64          `json:"occupancy"`
	Capacity          int64          `json:"capacity"`
	Couch             []CustomerView `json:"couch"`
	Standing          []CustomerView `json:"standing"`
	AwaitingPayment   []CustomerView `json:"awaiting_payment"`
	Paying            *CustomerView  `json:"paying,omitempty"`
	Barbers           []BarberView   `json:"barbers"`
	Admitted          int64          `json:"admitted"`
	Rejected          int64          `json:"rejected"`
	Departed          int64          `json:"departed"`
	MaxPaymentHolders int32          `json:"max_payment_holders"`
	Violations        int            `json:"violations"`
}

func viewOf(c *Customer) CustomerView {
	return CustomerView{
		ID:        c.ID,
		Name:      c.Name,
		ArrivedAt: c.ArrivedAt,
		Location:  c.Location().String(),
	}
}

func viewsOf(cs []*Customer) []CustomerView {
	out := make([]CustomerView, len(cs))
	for i, c := range cs {
		out[i] = viewOf(c)
	}
	return out
}

// Snapshot collects the current state of every component.
func (s *Shop) Snapshot() Snapshot {
	couch, standing := s.room.Queues()
	admitted, rejected, departed := s.gate.Totals()

	snap := Snapshot{
		Occupancy:         s.gate.Occupancy(),
		Capacity:          s.gate.Capacity(),
		Couch:             viewsOf(couch),
		Standing:          viewsOf(standing),
		AwaitingPayment:   viewsOf(s.counter.Line()),
		Admitted:          admitted,
		Rejected:          rejected,
		Departed:          departed,
		MaxPaymentHolders: s.counter.MaxHolders(),
		Violations:        len(s.monitor.Violations()),
	}

	if c := s.counter.Paying(); c != nil {
		v := viewOf(c)
		snap.Paying = &v
	}

	for _, b := range s.barbers {
		bv := BarberView{ID: b.ID, State: b.State().String(), Cuts: b.Cuts()}
		if c := b.Chair(); c != nil {
			v := viewOf(c)
			bv.Chair = &v
		}
		snap.Barbers = append(snap.Barbers, bv)
	}
	return snap
}
