package gateway

import (
	"sync"
)

// Registry is the process-wide map from tenant id to its live session. It is
// the exclusive owner of the mapping; callers must re-fetch instead of holding
// a session reference across blocking operations.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uint]*Session),
	}
}

func (r *Registry) Get(tenantID uint) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, exists := r.sessions[tenantID]
	return session, exists
}

func (r *Registry) Register(tenantID uint, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[tenantID] = session
}

// RegisterIfAbsent installs the session only when the tenant has none yet and
// reports whether it did. Concurrent starters race through this single check,
// so at most one session per tenant ever lands in the map.
func (r *Registry) RegisterIfAbsent(tenantID uint, session *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[tenantID]; exists {
		return false
	}
	r.sessions[tenantID] = session
	return true
}

func (r *Registry) Remove(tenantID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tenantID)
}
