// Package session remembers the last filter each user scouted with.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/xtding233/gacha-scout/internal/card"
)

// Session is the per-user state reused by "scout again" requests.
type Session struct {
	Filter    card.Filter
	UpdatedAt time.Time
}

// Store keeps sessions keyed by user id.
type Store interface {
	Get(ctx context.Context, userID string) (Session, bool)
	Put(ctx context.Context, userID string, s Session)
	Delete(ctx context.Context, userID string)
}

// MemoryStore is an in-process Store. With a zero TTL entries are kept
// until deleted.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

func (m *MemoryStore) expired(s Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}

// Get returns a copy of the session for userID.
func (m *MemoryStore) Get(_ context.Context, userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if m.expired(s, m.now()) {
		delete(m.sessions, userID)
		return Session{}, false
	}
	s.Filter = s.Filter.Clone()
	return s, true
}

// Put stores s for userID, stamping UpdatedAt.
func (m *MemoryStore) Put(_ context.Context, userID string, s Session) {
	s.Filter = s.Filter.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.sessions[userID] = s
}

func (m *MemoryStore) Delete(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len reports how many sessions are held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
