package shop

import "sync"

// insideLocations are the places an admitted customer can be.
var insideLocations = [...]Location{Standing, Couch, InChair, AwaitingPayment}

// tally counts customers per location. Every location change and every
// change to the gate's occupancy goes through one lock, so a reader sees a
// cut where each admitted customer is counted exactly once.
//
// A nil *tally only moves the customer; components built on their own use
// it that way.
type tally struct {
	mu       sync.Mutex
	entering int64 // admitted, not yet seated or standing
	count    [Departed + 1]int64
}

// admit records a customer that was just given a gate slot. commit updates
// the gate's occupancy inside the same critical section.
func (t *tally) admit(commit func()) {
	if t == nil {
		commit()
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	commit()
	t.entering++
}

// move relocates c. A customer coming from Outside leaves the entering count.
func (t *tally) move(c *Customer, to Location) {
	if t == nil {
		c.moveTo(to)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.moveLocked(c, to)
}

// depart moves c to Departed and runs commit, which releases the gate slot,
// in the same critical section.
func (t *tally) depart(c *Customer, commit func()) {
	if t == nil {
		c.moveTo(Departed)
		commit()
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.moveLocked(c, Departed)
	commit()
}

func (t *tally) moveLocked(c *Customer, to Location) {
	if from := c.Location(); from == Outside {
		t.entering--
	} else {
		t.count[from]--
	}
	t.count[to]++
	c.moveTo(to)
}

// inside returns the number of customers placed inside the shop, including
// those still entering, together with occupancy() read under the same lock.
func (t *tally) inside(occupancy func() int64) (placed, occ int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	placed = t.entering
	for _, l := range insideLocations {
		placed += t.count[l]
	}
	return placed, occupancy()
}
