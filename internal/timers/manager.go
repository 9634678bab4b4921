// Package timers tracks one cancellable one-shot delayed task per active
// visit, keyed by region identifier.
package timers

import (
	"sync"
	"time"
)

// Manager arms and cancels visit timers. At most one timer exists per
// region id at any time; scheduling over an existing id replaces it.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewManager creates an empty timer manager.
func NewManager() *Manager {
	return &Manager{pending: make(map[string]*time.Timer)}
}

// Schedule arms a one-shot task for id after delay. Any existing timer for
// the same id is cancelled first, so re-scheduling never stacks timers.
// A firing timer removes its own entry before invoking onFire, so onFire
// may re-schedule without cancelling itself.
func (m *Manager) Schedule(id string, delay time.Duration, onFire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.pending[id]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		m.mu.Lock()
		// A replaced or cancelled timer may still reach here; only the
		// currently registered timer is allowed to fire.
		if m.pending[id] != t {
			m.mu.Unlock()
			return
		}
		delete(m.pending, id)
		m.mu.Unlock()
		onFire()
	})
	m.pending[id] = t
}

// Cancel stops and removes the timer for id, if any.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.pending[id]; ok {
		t.Stop()
		delete(m.pending, id)
	}
}

// CancelAll stops and removes every outstanding timer.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.pending {
		t.Stop()
		delete(m.pending, id)
	}
}

// Pending returns the number of outstanding timers.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
