package service

import (
	"slices"
	"sync"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type StatusOptions struct {
	// TTL controls how long a snapshot is served from memory; default 250ms.
	TTL time.Duration
}

func (o *StatusOptions) setDefaults() {
	if o.TTL <= 0 {
		o.TTL = 250 * time.Millisecond
	}
}

// StatusResult lets the handler set cache headers.
type StatusResult struct {
	Data        shop.Snapshot
	Sinks       []SinkStats
	CacheHit    bool
	GeneratedAt time.Time
}

// SinkStatser reports the delivery counters of an external event sink.
type SinkStatser interface {
	Stats() (published, dropped, failed int64)
}

// SinkStats is one sink's counters at the time of the request.
type SinkStats struct {
	Name      string `json:"name"`
	Published int64  `json:"published"`
	Dropped   int64  `json:"dropped"`
	Failed    int64  `json:"failed"`
}

type namedSink struct {
	name string
	s    SinkStatser
}

// Snapshotter is the part of the shop the status service reads.
type Snapshotter interface {
	Snapshot() shop.Snapshot
}

// StatusService serves shop snapshots with a short in-memory cache.
// Concurrent refreshes are coalesced so polling clients do not take the
// shop's locks once per request.
type StatusService struct {
	log  *zap.Logger
	shop Snapshotter

	mu      sync.RWMutex
	cache   *shop.Snapshot
	expires time.Time
	genAt   time.Time

	sinks []namedSink

	opts StatusOptions
	now  func() time.Time

	sg singleflight.Group
}

// NewStatusService wires the shop and cache policy. Reuse one instance per
// process.
func NewStatusService(log *zap.Logger, s Snapshotter, opts StatusOptions) *StatusService {
	opts.setDefaults()
	return &StatusService{
		log:  log.Named("status_service"),
		shop: s,
		opts: opts,
		now:  time.Now,
	}
}

// AddSink registers an event sink whose counters are reported with every
// result. Sink counters are read live, never cached.
func (s *StatusService) AddSink(name string, sink SinkStatser) {
	s.mu.Lock()
	s.sinks = append(s.sinks, namedSink{name: name, s: sink})
	s.mu.Unlock()
}

// Get returns the cached snapshot or takes a new one when expired.
func (s *StatusService) Get() StatusResult {
	res := s.get()
	res.Sinks = s.sinkStats()
	return res
}

func (s *StatusService) get() StatusResult {
	if res, ok := s.cached(); ok {
		return res
	}

	v, _, shared := s.sg.Do("status-refresh", func() (any, error) {
		// Double-check freshness after winning the flight.
		if res, ok := s.cached(); ok {
			return res, nil
		}

		start := s.now()
		snap := s.shop.Snapshot()

		s.mu.Lock()
		s.cache = &snap
		s.expires = start.Add(s.opts.TTL)
		s.genAt = start
		s.mu.Unlock()

		return StatusResult{Data: cloneSnapshot(snap), GeneratedAt: start}, nil
	})
	res := v.(StatusResult)
	if shared {
		s.log.Debug("status refresh shared")
		res.Data = cloneSnapshot(res.Data)
	}
	return res
}

func (s *StatusService) cached() (StatusResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cache == nil || !s.now().Before(s.expires) {
		return StatusResult{}, false
	}
	return StatusResult{Data: cloneSnapshot(*s.cache), CacheHit: true, GeneratedAt: s.genAt}, true
}

func (s *StatusService) sinkStats() []SinkStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sinks) == 0 {
		return nil
	}
	out := make([]SinkStats, len(s.sinks))
	for i, ns := range s.sinks {
		p, d, f := ns.s.Stats()
		out[i] = SinkStats{Name: ns.name, Published: p, Dropped: d, Failed: f}
	}
	return out
}

// cloneSnapshot copies every slice and pointer so callers never share
// backing arrays with the cache.
func cloneSnapshot(in shop.Snapshot) shop.Snapshot {
	out := in
	out.Couch = slices.Clone(in.Couch)
	out.Standing = slices.Clone(in.Standing)
	out.AwaitingPayment = slices.Clone(in.AwaitingPayment)
	if in.Paying != nil {
		v := *in.Paying
		out.Paying = &v
	}
	out.Barbers = slices.Clone(in.Barbers)
	for i, b := range out.Barbers {
		if b.Chair != nil {
			v := *b.Chair
			out.Barbers[i].Chair = &v
		}
	}
	return out
}

// Invalidate drops the cached snapshot.
func (s *StatusService) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.expires = time.Time{}
	s.genAt = time.Time{}
	s.mu.Unlock()
}
