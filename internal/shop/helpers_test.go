package shop

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// recorder is a Notifier that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) kinds(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(kind EventKind) int { return len(r.kinds(kind)) }

var timeZero time.Time

func newTestEmitter(n Notifier) *emitter {
	return newEmitter(n, func() int64 { return 0 })
}

func customers(n int) []*Customer {
	out := make([]*Customer, n)
	for i := range out {
		out[i] = NewCustomer(fmt.Sprintf("c%02d", i+1), time.Now())
	}
	return out
}

// eventually polls cond until it holds or a generous deadline passes.
func eventually(t *testing.T, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out: "+format, args...)
		}
		time.Sleep(time.Millisecond)
	}
}
