package eventlog

import (
	"sync"

	"github.com/edirooss/barbershop/internal/shop"
)

// Size is the number of events a buffer retains.
const Size = 500

// buffer is a thread-safe circular buffer of shop events with O(1) append
// and O(N) read.
type buffer struct {
	entries [Size]shop.Event // fixed-size ring, no per-append allocation
	head    int              // next write position
	size    int              // current number of entries
	full    bool             // whether the ring has wrapped
	mu      sync.RWMutex     // protects all fields
}

// Append adds an event, overwriting the oldest once full.
func (b *buffer) Append(e shop.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = e
	b.head = (b.head + 1) % Size

	if b.full {
		return
	}
	b.size++
	if b.size == Size {
		b.full = true
	}
}

// Read returns the last n events, newest first. n <= 0 or n > Size means
// everything retained. The result is a new slice owned by the caller.
func (b *buffer) Read(n int) []shop.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}
	if n <= 0 || n > Size {
		n = Size
	}
	if n > b.size {
		n = b.size
	}

	// head points at the next overwrite, so the newest entry is one behind it.
	newest := (b.head - 1 + Size) % Size

	out := make([]shop.Event, n)
	for i := 0; i < n; i++ {
		out[i] = b.entries[(newest-i+Size)%Size]
	}
	return out
}
