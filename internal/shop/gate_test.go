package shop

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestGateAdmitsUpToCapacity(t *testing.T) {
	g := NewGate(Capacity)
	cs := customers(Capacity + 1)

	for i, c := range cs[:Capacity] {
		if got := g.TryAdmit(c); got != Admitted {
			t.Fatalf("customer %d: got %s, want admitted", i+1, got)
		}
	}
	if got := g.TryAdmit(cs[Capacity]); got != Rejected {
		t.Fatalf("customer %d: got %s, want rejected", Capacity+1, got)
	}

	if got := g.Occupancy(); got != Capacity {
		t.Errorf("occupancy = %d, want %d", got, Capacity)
	}
	admitted, rejected, departed := g.Totals()
	if admitted != Capacity || rejected != 1 || departed != 0 {
		t.Errorf("totals = %d/%d/%d, want %d/1/0", admitted, rejected, departed, Capacity)
	}
	if n := len(g.occupants()); n != Capacity {
		t.Errorf("occupants = %d, want %d", n, Capacity)
	}
}

func TestGateDepartFreesSlot(t *testing.T) {
	g := NewGate(1)
	a, b := NewCustomer("a", timeZero), NewCustomer("b", timeZero)

	if g.TryAdmit(a) != Admitted {
		t.Fatal("first customer rejected")
	}
	if g.TryAdmit(b) != Rejected {
		t.Fatal("second customer admitted into a full shop")
	}

	g.Depart(a)
	if g.Occupancy() != 0 {
		t.Fatalf("occupancy = %d after departure, want 0", g.Occupancy())
	}
	if g.TryAdmit(b) != Admitted {
		t.Fatal("customer rejected after a slot was freed")
	}
}

func TestGateConcurrentAdmissionsNeverExceedCapacity(t *testing.T) {
	g := NewGate(Capacity)
	cs := customers(200)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for _, c := range cs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAdmit(c) == Admitted {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != Capacity {
		t.Fatalf("admitted %d customers, want exactly %d", got, Capacity)
	}
	if got := g.Occupancy(); got != Capacity {
		t.Fatalf("occupancy = %d, want %d", got, Capacity)
	}
}

func TestGateProtocolViolationsPanic(t *testing.T) {
	tests := []struct {
		name string
		run  func(g *Gate, c *Customer)
	}{
		{"double admit", func(g *Gate, c *Customer) { g.TryAdmit(c); g.TryAdmit(c) }},
		{"depart without slot", func(g *Gate, c *Customer) { g.Depart(c) }},
		{"double depart", func(g *Gate, c *Customer) { g.TryAdmit(c); g.Depart(c); g.Depart(c) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.run(NewGate(Capacity), NewCustomer("x", timeZero))
		})
	}
}
