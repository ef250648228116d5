package shop

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EventKind names a status change observable from outside the shop.
type EventKind string

const (
	EventArrived        EventKind = "arrived"
	EventAdmitted       EventKind = "admitted"
	EventRejected       EventKind = "rejected"
	EventSeated         EventKind = "seated"
	EventStanding       EventKind = "standing"
	EventPromoted       EventKind = "promoted"
	EventBarberSleeping EventKind = "barber_sleeping"
	EventCutStarted     EventKind = "cut_started"
	EventCutFinished    EventKind = "cut_finished"
	EventPaymentStarted EventKind = "payment_started"
	EventPaid           EventKind = "paid"
	EventDeparted       EventKind = "departed"
)

// Event is one entry of the shop's status stream.
// Barber is 0 when no barber is involved.
type Event struct {
	Seq          uint64    `json:"seq"`
	At           time.Time `json:"at"`
	Kind         EventKind `json:"kind"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	Barber       int       `json:"barber,omitempty"`
	Occupancy    int64     `json:"occupancy"`
}

// Notifier consumes shop events. Notify is called from inside the core's
// critical sections, so implementations must return quickly and never call
// back into the shop.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Notifiers fans an event out to every member in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		n.Notify(e)
	}
}

// emitter stamps events with a sequence number, time and the current
// occupancy before handing them to the notifier.
type emitter struct {
	seq       atomic.Uint64
	notifier  Notifier
	occupancy func() int64
	now       func() time.Time

	mu sync.Mutex // serializes delivery so Seq order equals delivery order
}

func newEmitter(n Notifier, occupancy func() int64) *emitter {
	if n == nil {
		n = Notifiers(nil)
	}
	return &emitter{notifier: n, occupancy: occupancy, now: time.Now}
}

func (em *emitter) emit(kind EventKind, c *Customer, barber int) {
	em.mu.Lock()
	defer em.mu.Unlock()

	e := Event{
		Seq:       em.seq.Add(1),
		At:        em.now(),
		Kind:      kind,
		Barber:    barber,
		Occupancy: em.occupancy(),
	}
	if c != nil {
		e.CustomerID = c.ID
		e.CustomerName = c.Name
	}
	em.notifier.Notify(e)
}

// LogNotifier writes every event as a structured log line.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("events")}
}

func (n *LogNotifier) Notify(e Event) {
	fields := []zap.Field{
		zap.Uint64("seq", e.Seq),
		zap.Int64("occupancy", e.Occupancy),
	}
	if e.CustomerID != "" {
		fields = append(fields, zap.String("customer", e.CustomerName), zap.String("customer_id", e.CustomerID))
	}
	if e.Barber != 0 {
		fields = append(fields, zap.Int("barber", e.Barber))
	}

	switch e.Kind {
	case EventRejected:
		n.log.Warn(string(e.Kind), fields...)
	case EventBarberSleeping, EventArrived:
		n.log.Debug(string(e.Kind), fields...)
	default:
		n.log.Info(string(e.Kind), fields...)
	}
}
