// Package eventlog keeps the most recent shop events in memory, shop-wide and
// per barber.
package eventlog

import (
	"sync"

	"github.com/edirooss/barbershop/internal/shop"
)

// ShopWide is the key of the buffer that receives every event.
const ShopWide = 0

// Manager is a registry of event buffers keyed by barber ID.
// Buffers are created lazily. It implements shop.Notifier.
type Manager struct {
	mu   sync.RWMutex
	bufs map[int]*buffer
}

func NewManager() *Manager {
	return &Manager{bufs: make(map[int]*buffer)}
}

func (m *Manager) get(key int) *buffer {
	m.mu.RLock()
	buf, ok := m.bufs[key]
	m.mu.RUnlock()
	if ok {
		return buf
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.bufs[key]; ok {
		return buf
	}
	buf = new(buffer)
	m.bufs[key] = buf
	return buf
}

// Notify records e shop-wide and, when a barber is involved, in that
// barber's buffer.
func (m *Manager) Notify(e shop.Event) {
	m.get(ShopWide).Append(e)
	if e.Barber != 0 {
		m.get(e.Barber).Append(e)
	}
}

// Read returns up to n events for key, newest first. ok is false when
// nothing was ever recorded for key.
func (m *Manager) Read(key, n int) (events []shop.Event, ok bool) {
	m.mu.RLock()
	buf, ok := m.bufs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return buf.Read(n), true
}
