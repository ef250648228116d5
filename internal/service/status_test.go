package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	"go.uber.org/zap/zaptest"
)

type countingShop struct {
	calls atomic.Int64
}

func (s *countingShop) Snapshot() shop.Snapshot {
	n := s.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return shop.Snapshot{Occupancy: n}
}

func TestStatusServiceCachesWithinTTL(t *testing.T) {
	src := &countingShop{}
	svc := NewStatusService(zaptest.NewLogger(t), src, StatusOptions{TTL: time.Minute})

	now := time.Unix(1000, 0)
	svc.now = func() time.Time { return now }

	first := svc.Get()
	if first.CacheHit || first.Data.Occupancy != 1 {
		t.Fatalf("first = %+v, want fresh snapshot #1", first)
	}
	second := svc.Get()
	if !second.CacheHit || second.Data.Occupancy != 1 {
		t.Fatalf("second = %+v, want cached snapshot #1", second)
	}

	now = now.Add(2 * time.Minute)
	third := svc.Get()
	if third.CacheHit || third.Data.Occupancy != 2 {
		t.Fatalf("third = %+v, want fresh snapshot #2", third)
	}

	svc.Invalidate()
	if svc.Get().CacheHit {
		t.Fatal("cache hit after Invalidate")
	}
}

func TestStatusServiceCoalescesRefreshes(t *testing.T) {
	src := &countingShop{}
	svc := NewStatusService(zaptest.NewLogger(t), src, StatusOptions{TTL: time.Minute})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Get()
		}()
	}
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Fatalf("snapshot taken %d times, want 1", n)
	}
}

type fixedShop struct{ snap shop.Snapshot }

func (s fixedShop) Snapshot() shop.Snapshot { return s.snap }

func TestStatusServiceHandsOutCopies(t *testing.T) {
	chair := shop.CustomerView{ID: "b", Name: "Levi"}
	src := fixedShop{snap: shop.Snapshot{
		Couch:   []shop.CustomerView{{ID: "a", Name: "Noah"}},
		Barbers: []shop.BarberView{{ID: 1, Chair: &chair}},
	}}
	svc := NewStatusService(zaptest.NewLogger(t), src, StatusOptions{TTL: time.Minute})

	first := svc.Get()
	first.Data.Couch[0].Name = "changed"
	first.Data.Barbers[0].Chair.Name = "changed"

	second := svc.Get()
	if !second.CacheHit {
		t.Fatal("second Get missed the cache")
	}
	if second.Data.Couch[0].Name != "Noah" || second.Data.Barbers[0].Chair.Name != "Levi" {
		t.Fatalf("cached snapshot modified through a returned copy: %+v", second.Data)
	}
}

type fixedStats struct{ p, d, f int64 }

func (s fixedStats) Stats() (int64, int64, int64) { return s.p, s.d, s.f }

func TestStatusServiceReportsSinks(t *testing.T) {
	svc := NewStatusService(zaptest.NewLogger(t), &countingShop{}, StatusOptions{TTL: time.Minute})
	if res := svc.Get(); res.Sinks != nil {
		t.Fatalf("sinks = %v with none registered", res.Sinks)
	}

	svc.AddSink("redis", fixedStats{p: 7, d: 1, f: 2})
	res := svc.Get()
	want := SinkStats{Name: "redis", Published: 7, Dropped: 1, Failed: 2}
	if len(res.Sinks) != 1 || res.Sinks[0] != want {
		t.Fatalf("sinks = %+v, want [%+v]", res.Sinks, want)
	}
	if !res.CacheHit {
		t.Error("registering a sink invalidated the snapshot cache")
	}
}
