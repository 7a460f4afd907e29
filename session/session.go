// Package session carries an authenticated session across subdomain
// boundaries.
//
// A session has two homes: a server-side durable store (the fast path) and
// a credential cookie scoped to the registrable root domain, which is what
// sibling subdomains actually observe. Crossing a subdomain boundary is a
// full document load, and at that moment the cookie — not any in-process
// state — is the authority; the bridge rehydrates the store from it.
//
// On a bare local-development host, root-domain cookie scoping is not
// achievable in modern browsers. The bridge then degrades to a host-only
// cookie and cross-subdomain continuity becomes best-effort. This is a
// documented limitation, not an error.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getportico/portico/identity"
)

// Session is the durable authenticated state for one browser session.
//
// Impersonating and ImpersonatedTenantID are set and cleared only as a
// pair, via SetImpersonation and ClearImpersonation. A session with one of
// the two set and the other empty is a defect.
type Session struct {
	ID                   string             `json:"id"`
	Credential           string             `json:"credential"`
	Principal            identity.Principal `json:"principal"`
	Impersonating        bool               `json:"impersonating"`
	ImpersonatedTenantID string             `json:"impersonated_tenant_id,omitempty"`
	IssuedAt             time.Time          `json:"issued_at"`
	ExpiresAt            time.Time          `json:"expires_at"`
}

// SetImpersonation marks the session as impersonating the given tenant.
func (s *Session) SetImpersonation(tenantID string) {
	s.Impersonating = true
	s.ImpersonatedTenantID = tenantID
}

// ClearImpersonation resets both impersonation fields.
func (s *Session) ClearImpersonation() {
	s.Impersonating = false
	s.ImpersonatedTenantID = ""
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ErrNotFound is returned by stores for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Store is the server-side durable session store.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store for single-instance deployments and
// tests. Concurrent logins on the same id are last-write-wins.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired() {
		m.Delete(ctx, id)
		return nil, ErrNotFound
	}

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
