package hook

import (
	"sync"
	"sync/atomic"
)

// Manager holds the set of registered hooks and dispatches events to all
// of them in registration order. Reads (Fire family) go through an
// atomic.Pointer so the common case — firing an event — never blocks on
// a lock; Add/Remove take a mutex and install a fresh copy of the slice,
// copy-on-write.
type Manager struct {
	mu    sync.Mutex
	index map[string]int
	hooks atomic.Pointer[[]Hook]
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	m := &Manager{index: make(map[string]int)}
	empty := make([]Hook, 0)
	m.hooks.Store(&empty)
	return m
}

// Add registers h. Returns ErrEmptyHookID or ErrHookAlreadyExists if h
// cannot be registered.
func (m *Manager) Add(h Hook) error {
	if h.ID() == "" {
		return ErrEmptyHookID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[h.ID()]; ok {
		return ErrHookAlreadyExists
	}

	old := *m.hooks.Load()
	next := make([]Hook, len(old), len(old)+1)
	copy(next, old)
	next = append(next, h)

	m.index[h.ID()] = len(next) - 1
	m.hooks.Store(&next)
	return nil
}

// Remove unregisters the hook with the given id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.index[id]
	if !ok {
		return ErrHookNotFound
	}

	old := *m.hooks.Load()
	next := make([]Hook, 0, len(old)-1)
	next = append(next, old[:pos]...)
	next = append(next, old[pos+1:]...)

	delete(m.index, id)
	for i := pos; i < len(next); i++ {
		m.index[next[i].ID()] = i
	}
	m.hooks.Store(&next)
	return nil
}

// All returns the currently registered hooks. The returned slice must
// not be mutated.
func (m *Manager) All() []Hook {
	return *m.hooks.Load()
}

// Fire order: every hook runs regardless of a prior hook's error; the
// errors hooks return are discarded.

func (m *Manager) FireStarted(addr string) {
	for _, h := range m.All() {
		_ = h.OnStarted(addr)
	}
}

func (m *Manager) FireStopped(err error) {
	for _, h := range m.All() {
		_ = h.OnStopped(err)
	}
}

func (m *Manager) FireConnect(c ClientInfo) {
	for _, h := range m.All() {
		_ = h.OnConnect(c)
	}
}

func (m *Manager) FireRestore(c ClientInfo) {
	for _, h := range m.All() {
		_ = h.OnRestore(c)
	}
}

func (m *Manager) FireNameCollision(name string) {
	for _, h := range m.All() {
		_ = h.OnNameCollision(name)
	}
}

func (m *Manager) FireDisconnect(c ClientInfo) {
	for _, h := range m.All() {
		_ = h.OnDisconnect(c)
	}
}

func (m *Manager) FireLost(c ClientInfo) {
	for _, h := range m.All() {
		_ = h.OnLost(c)
	}
}

func (m *Manager) FireExpire(c ClientInfo) {
	for _, h := range m.All() {
		_ = h.OnExpire(c)
	}
}

func (m *Manager) FireSubscribe(c ClientInfo, topic string) {
	for _, h := range m.All() {
		_ = h.OnSubscribe(c, topic)
	}
}

func (m *Manager) FireUnsubscribe(c ClientInfo, topic string) {
	for _, h := range m.All() {
		_ = h.OnUnsubscribe(c, topic)
	}
}

func (m *Manager) FirePublish(p PublishInfo) {
	for _, h := range m.All() {
		_ = h.OnPublish(p)
	}
}

func (m *Manager) FirePublishDropped(recipient, topic string) {
	for _, h := range m.All() {
		_ = h.OnPublishDropped(recipient, topic)
	}
}
