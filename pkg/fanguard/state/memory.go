package state

import (
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests. It counts reads so tests
// can assert which records a caller looked at.
type MemoryStore struct {
	mu sync.Mutex

	pid       int
	hasPID    bool
	target    int
	hasTarget bool
	log       []string
	hasLog    bool
	sessions  int

	targetReads int

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// RecordLiveness implements Store.
func (m *MemoryStore) RecordLiveness(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pid, m.hasPID = pid, true
	return nil
}

// ReadLiveness implements Store.
func (m *MemoryStore) ReadLiveness() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pid, m.hasPID
}

// ClearLiveness implements Store.
func (m *MemoryStore) ClearLiveness() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pid, m.hasPID = 0, false
	return nil
}

// WriteTarget implements Store.
func (m *MemoryStore) WriteTarget(speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target, m.hasTarget = speed, true
	return nil
}

// ReadTarget implements Store.
func (m *MemoryStore) ReadTarget() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targetReads++
	return m.target, m.hasTarget
}

// ClearTarget implements Store.
func (m *MemoryStore) ClearTarget() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target, m.hasTarget = 0, false
	return nil
}

// ResetLog implements Store.
func (m *MemoryStore) ResetLog() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions++
	m.log = []string{FormatEvent(m.now(), SessionDelimiter("memory"))}
	m.hasLog = true
	return nil
}

// AppendEvent implements Store.
func (m *MemoryStore) AppendEvent(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, FormatEvent(m.now(), message))
	m.hasLog = true
	return nil
}

// TailLog implements Store.
func (m *MemoryStore) TailLog(n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasLog {
		return nil, ErrNotFound
	}
	return lastN(m.log, n), nil
}

// Events returns every log line.
func (m *MemoryStore) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lastN(m.log, 0)
}

// TargetReads returns how many times ReadTarget was called.
func (m *MemoryStore) TargetReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.targetReads
}

// Sessions returns how many times ResetLog was called.
func (m *MemoryStore) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions
}

var _ Store = (*MemoryStore)(nil)
