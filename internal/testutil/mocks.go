// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the course-portal application.
package testutil

import (
	"context"
	"errors"
	"sync"

	"course-portal/internal/domain"
	"course-portal/internal/storage"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStorage        = errors.New("mock: storage unavailable")
)

// MockAuthBackend implements domain.AuthBackend for testing
type MockAuthBackend struct {
	mu sync.Mutex

	LoginFunc    func(ctx context.Context, creds domain.Credentials) (*domain.Grant, error)
	RegisterFunc func(ctx context.Context, reg domain.Registration) (*domain.Grant, error)

	LoginCalls    []domain.Credentials
	RegisterCalls []domain.Registration
}

func (m *MockAuthBackend) Login(ctx context.Context, creds domain.Credentials) (*domain.Grant, error) {
	m.mu.Lock()
	m.LoginCalls = append(m.LoginCalls, creds)
	m.mu.Unlock()

	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, ErrMockNotImplemented
}

func (m *MockAuthBackend) Register(ctx context.Context, reg domain.Registration) (*domain.Grant, error) {
	m.mu.Lock()
	m.RegisterCalls = append(m.RegisterCalls, reg)
	m.mu.Unlock()

	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	return nil, ErrMockNotImplemented
}

// FlakyKV wraps a MemoryStore and fails the operations named in FailOn
type FlakyKV struct {
	*storage.MemoryStore

	mu     sync.Mutex
	FailOn map[string]bool // "get", "set", "delete" or "set:<key>"
}

func NewFlakyKV() *FlakyKV {
	return &FlakyKV{MemoryStore: storage.NewMemoryStore(), FailOn: map[string]bool{}}
}

// Fail makes the named operation fail until Heal is called
func (f *FlakyKV) Fail(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOn[op] = true
}

// Heal clears all injected failures
func (f *FlakyKV) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOn = map[string]bool{}
}

func (f *FlakyKV) failing(op, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FailOn[op] || f.FailOn[op+":"+key]
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, error) {
	if f.failing("get", key) {
		return "", ErrMockStorage
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key, value string) error {
	if f.failing("set", key) {
		return ErrMockStorage
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *FlakyKV) Delete(ctx context.Context, key string) error {
	if f.failing("delete", key) {
		return ErrMockStorage
	}
	return f.MemoryStore.Delete(ctx, key)
}

// RecordingNavigator records forced navigations
type RecordingNavigator struct {
	mu      sync.Mutex
	Targets []string
}

func (n *RecordingNavigator) Navigate(ctx context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Targets = append(n.Targets, path)
}

// Count returns how many navigations were recorded
func (n *RecordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Targets)
}
