package practice

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("practice session not found")

// Record is a stored practice session.
type Record struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Lesson    string    `json:"lesson"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists practice sessions between requests. Update runs fn with
// exclusive access to one record and saves the result when fn returns nil.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Expired sessions are dropped on
// access and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec.UpdatedAt = now
	m.entries[rec.ID] = &memoryEntry{rec: copyRecord(*rec), expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.live(id)
	if err != nil {
		return nil, err
	}
	rec := copyRecord(e.rec)
	return &rec, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Record) error) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.live(id)
	if err != nil {
		return nil, err
	}
	rec := copyRecord(e.rec)
	if err := fn(&rec); err != nil {
		return nil, err
	}
	now := m.now()
	rec.UpdatedAt = now
	e.rec = copyRecord(rec)
	e.expiresAt = now.Add(m.ttl)
	return &rec, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) live(id string) (*memoryEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func copyRecord(r Record) Record {
	r.State = r.State.clone()
	return r
}
