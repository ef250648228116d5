package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edirooss/barbershop/internal/eventlog"
	"github.com/edirooss/barbershop/internal/service"
	"github.com/edirooss/barbershop/internal/shop"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) (*gin.Engine, *shop.Shop, *eventlog.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	events := eventlog.NewManager()
	s := shop.New(log, shop.Options{Notifier: events})
	h := NewShopHandler(log, service.NewStatusService(log, s, service.StatusOptions{}), events)

	r := gin.New()
	r.GET("/api/status", h.Status)
	r.GET("/api/events", h.Events)
	r.GET("/api/barbers/:id/events", h.BarberEvents)
	return r, s, events
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStatus(t *testing.T) {
	r, s, _ := newTestRouter(t)
	for _, c := range []string{"Gael", "Théo", "Heitor", "Ravi", "Davi"} {
		s.Admit(shop.NewCustomer(c, time.Now()))
	}

	w := get(r, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q on first request", w.Header().Get("X-Cache"))
	}

	var snap shop.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Occupancy != 5 || len(snap.Couch) != 4 || len(snap.Standing) != 1 || len(snap.Barbers) != shop.BarberCount {
		t.Errorf("snapshot = %+v", snap)
	}

	if w := get(r, "/api/status"); w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q on second request", w.Header().Get("X-Cache"))
	}
}

type stubSink struct{}

func (stubSink) Stats() (published, dropped, failed int64) { return 12, 3, 1 }

func TestStatusIncludesSinks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	status := service.NewStatusService(log, shop.New(log, shop.Options{}), service.StatusOptions{})
	status.AddSink("amqp", stubSink{})

	r := gin.New()
	r.GET("/api/status", NewShopHandler(log, status, eventlog.NewManager()).Status)

	w := get(r, "/api/status")
	var body struct {
		Capacity int64               `json:"capacity"`
		Sinks    []service.SinkStats `json:"sinks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := service.SinkStats{Name: "amqp", Published: 12, Dropped: 3, Failed: 1}
	if body.Capacity != shop.Capacity || len(body.Sinks) != 1 || body.Sinks[0] != want {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestEvents(t *testing.T) {
	r, s, _ := newTestRouter(t)
	s.Admit(shop.NewCustomer("Levi", time.Now()))

	w := get(r, "/api/events?lines=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var events []shop.Event
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	// arrived, admitted, seated; newest first
	if len(events) != 2 || events[0].Kind != shop.EventSeated || events[1].Kind != shop.EventAdmitted {
		t.Fatalf("events = %+v", events)
	}
	if w.Header().Get("X-Total-Count") != "2" {
		t.Errorf("X-Total-Count = %q", w.Header().Get("X-Total-Count"))
	}
}

func TestEventsBadRequests(t *testing.T) {
	r, _, _ := newTestRouter(t)

	tests := []struct {
		target string
		code   int
	}{
		{"/api/events?lines=abc", http.StatusBadRequest},
		{"/api/events?lines=-3", http.StatusBadRequest},
		{"/api/barbers/0/events", http.StatusBadRequest},
		{"/api/barbers/4/events", http.StatusBadRequest},
		{"/api/barbers/x/events", http.StatusBadRequest},
		{"/api/barbers/2/events", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(r, tt.target)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			if tt.code == http.StatusOK && w.Body.String() != "[]" {
				t.Errorf("body = %s, want []", w.Body.String())
			}
		})
	}
}
