// Package tokenstore persists the single bearer credential a dashboard
// session uses. A failed or corrupt read is always reported as absence.
package tokenstore

import (
	"sync"
	"time"
)

// DefaultTTL is how long a stored token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Store holds at most one token with an expiry.
type Store interface {
	// Set persists token until now+ttl, replacing any previous token.
	Set(token string, ttl time.Duration) error
	// Get returns the token, or false if none is stored or it expired.
	Get() (string, bool)
	// Clear removes the token. Clearing an empty store succeeds.
	Clear() error
}

// Memory is an in-process Store. The zero value is empty and ready to use.
type Memory struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Set(token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expiresAt = m.clock().Add(ttl)
	return nil
}

func (m *Memory) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", false
	}
	if !m.clock().Before(m.expiresAt) {
		m.token = ""
		return "", false
	}
	return m.token, true
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
	return nil
}

func (m *Memory) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
