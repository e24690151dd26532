package state

import "sync"

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryManager constructs an in-memory Manager. Sessions live for the process lifetime.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*convLock),
	}
}

// Get returns a copy of the session, or an idle session if the user is unknown.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return *s
	}
	return Session{State: StateIdle}
}

func (m *memoryManager) session(userID int64) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{State: StateIdle}
		m.sessions[userID] = s
	}
	return s
}

// SetState sets the screen for the given user.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

// GetState returns the current screen of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	return m.Get(userID).State
}

// SetSelectedYear records the year chosen by the user.
func (m *memoryManager) SetSelectedYear(userID int64, year string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).SelectedYear = year
}

// SelectedYear returns the year chosen by the user, if any.
func (m *memoryManager) SelectedYear(userID int64) (string, bool) {
	year := m.Get(userID).SelectedYear
	return year, year != ""
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Lock blocks until no other caller holds the lock for userID.
// Lock entries are reference counted and dropped once nobody waits on them.
func (m *memoryManager) Lock(userID int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &convLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, userID)
			}
			m.locksMu.Unlock()
		})
	}
}
