package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock keeps TTL locks in memory. AcquireFn overrides
// Acquire when set.
type MockDistributedLock struct {
	mu     sync.Mutex
	expiry map[string]time.Time

	AcquireFn func(name string, ttl time.Duration) (bool, error)
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{expiry: make(map[string]time.Time)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, ok := m.expiry[name]; ok && time.Now().Before(exp) {
		return false, nil
	}
	m.expiry[name] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiry, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, ok := m.expiry[name]; !ok || time.Now().After(exp) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expiry[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return nil
}

// IsHeld reports whether name is currently locked
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expiry[name]
	return ok && time.Now().Before(exp)
}

// SetLockHeld simulates another instance holding name
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[name] = time.Now().Add(ttl)
}
