package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	"github.com/redis/go-redis/v9"
)

const (
	defaultStream = "barbershop:events"
	totalsKey     = "barbershop:totals" // HASH of event kind → count
)

// EventStream appends shop events to a capped Redis stream and keeps
// per-kind counters next to it.
type EventStream struct {
	client *Client
	stream string
	maxLen int64
}

// NewEventStream writes to stream (default "barbershop:events"), trimming it
// to roughly maxLen entries.
func NewEventStream(client *Client, stream string, maxLen int64) *EventStream {
	if stream == "" {
		stream = defaultStream
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &EventStream{client: client, stream: stream, maxLen: maxLen}
}

// Publish implements eventsink.Publisher. The XADD and the counter bump are
// sent in one MULTI/EXEC.
func (s *EventStream) Publish(ctx context.Context, e shop.Event) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: true,
			Values: eventValues(e),
		})
		pipe.HIncrBy(ctx, totalsKey, string(e.Kind), 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// eventValues flattens an event into stream entry fields.
func eventValues(e shop.Event) map[string]any {
	v := map[string]any{
		"seq":       strconv.FormatUint(e.Seq, 10),
		"at":        e.At.UTC().Format(time.RFC3339Nano),
		"kind":      string(e.Kind),
		"occupancy": strconv.FormatInt(e.Occupancy, 10),
	}
	if e.CustomerID != "" {
		v["customer_id"] = e.CustomerID
		v["customer_name"] = e.CustomerName
	}
	if e.Barber != 0 {
		v["barber"] = strconv.Itoa(e.Barber)
	}
	return v
}
