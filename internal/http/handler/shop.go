package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/edirooss/barbershop/internal/eventlog"
	"github.com/edirooss/barbershop/internal/service"
	"github.com/edirooss/barbershop/internal/shop"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventReader returns recent events for a key, newest first.
type EventReader interface {
	Read(key, n int) ([]shop.Event, bool)
}

type ShopHandler struct {
	log    *zap.Logger
	status *service.StatusService
	events EventReader
}

// NewShopHandler constructs a ShopHandler instance.
func NewShopHandler(log *zap.Logger, status *service.StatusService, events EventReader) *ShopHandler {
	return &ShopHandler{
		log:    log.Named("shop_handler"),
		status: status,
		events: events,
	}
}

type statusResponse struct {
	shop.Snapshot
	Sinks []service.SinkStats `json:"sinks,omitempty"`
}

// Status serves the current shop snapshot together with the event sinks'
// delivery counters.
func (h *ShopHandler) Status(c *gin.Context) {
	res := h.status.Get()

	if res.CacheHit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Header("X-Status-Generated-At", res.GeneratedAt.UTC().Format(time.RFC3339Nano))
	c.JSON(http.StatusOK, statusResponse{Snapshot: res.Data, Sinks: res.Sinks})
}

// Events serves the shop-wide event log. ?lines=N limits the result
// (0 or absent = everything retained).
func (h *ShopHandler) Events(c *gin.Context) {
	h.serveEvents(c, eventlog.ShopWide)
}

// BarberEvents serves the event log of the barber in :id.
func (h *ShopHandler) BarberEvents(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 || id > shop.BarberCount {
		err := fmt.Errorf("invalid barber id %q: want 1..%d", c.Param("id"), shop.BarberCount)
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	h.serveEvents(c, id)
}

func (h *ShopHandler) serveEvents(c *gin.Context, key int) {
	lines := 0
	if s := c.Query("lines"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			err := fmt.Errorf("invalid lines %q", s)
			c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		lines = n
	}

	events, _ := h.events.Read(key, lines)
	if events == nil {
		events = []shop.Event{}
	}

	c.Header("X-Total-Count", strconv.Itoa(len(events)))
	c.JSON(http.StatusOK, events)
}
