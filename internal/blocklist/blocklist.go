// Package blocklist holds the set of revoked token ids (jti values) consulted
// on every authenticated request. A jti enters the set on logout and on refresh
// token consumption; once present, any token carrying it is rejected for the
// rest of its validity window.
package blocklist

import (
	"context"
	"sync"
)

// Registry is the revocation set. Implementations must be safe for concurrent
// use; a revoke racing a concurrent verify is an accepted, bounded window.
type Registry interface {
	// Revoke adds jti to the revoked set. Idempotent; a no-op if already present.
	Revoke(ctx context.Context, jti string) error
	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Memory is an in-process Registry backed by a mutex-guarded set.
//
// Entries accumulate for the process lifetime and are lost on restart:
// after a restart previously revoked tokens are accepted again until they
// expire. Memory is also per-instance, so it cannot fence tokens across
// multiple server replicas. Use Redis for either requirement.
type Memory struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewMemory returns an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]struct{})}
}

// Revoke adds jti to the set.
func (m *Memory) Revoke(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = struct{}{}
	return nil
}

// IsRevoked reports whether jti is in the set.
func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[jti]
	return ok, nil
}
