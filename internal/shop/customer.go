package shop

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Location is where a customer currently is inside (or outside) the shop.
type Location int32

const (
	Outside Location = iota
	Standing
	Couch
	InChair
	AwaitingPayment
	Departed
)

func (l Location) String() string {
	switch l {
	case Outside:
		return "outside"
	case Standing:
		return "standing"
	case Couch:
		return "couch"
	case InChair:
		return "in_chair"
	case AwaitingPayment:
		return "awaiting_payment"
	case Departed:
		return "departed"
	default:
		return "unknown"
	}
}

// Customer is a single visitor. ID, Name and ArrivedAt never change; the
// location is written only by the component that currently holds the
// customer, inside that component's critical section.
type Customer struct {
	ID        string
	Name      string
	ArrivedAt time.Time

	loc atomic.Int32
}

// NewCustomer returns a customer standing outside the shop with a fresh ID.
func NewCustomer(name string, at time.Time) *Customer {
	return &Customer{
		ID:        uuid.NewString(),
		Name:      name,
		ArrivedAt: at,
	}
}

func (c *Customer) Location() Location { return Location(c.loc.Load()) }

func (c *Customer) moveTo(l Location) { c.loc.Store(int32(l)) }
