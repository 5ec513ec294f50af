package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"course-portal/internal/domain"
	"course-portal/internal/observability"
	"course-portal/internal/storage"
)

// Store is the single source of truth for whether the current client is
// authenticated. It owns the durable session record exclusively.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister *Persister
}

// NewStore creates an empty store over kv. Call Initialize to restore a
// previously persisted session.
func NewStore(kv storage.KV) *Store {
	return &Store{persister: NewPersister(kv)}
}

// Initialize restores the session from durable storage. Any failure is
// logged and leaves the store anonymous.
func (s *Store) Initialize(ctx context.Context) {
	restored, err := s.persister.Load(ctx)
	if err != nil {
		log := observability.FromContext(ctx)
		if errors.Is(err, domain.ErrStorageCorrupt) {
			log.Warn("discarding corrupt stored session", slog.String("error", err.Error()))
		} else {
			log.Error("failed to read stored session", slog.String("error", err.Error()))
		}
		observability.SessionEventsTotal.WithLabelValues("restore", "failed").Inc()
		restored = Anonymous()
	} else if restored.Authenticated() {
		observability.SessionEventsTotal.WithLabelValues("restore", "ok").Inc()
	}

	s.mu.Lock()
	s.state = restored
	s.mu.Unlock()
}

// IsAuthenticated reports whether a token is present. No I/O.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated()
}

// Token returns the current bearer token, empty when anonymous
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User returns the current user profile, nil when anonymous
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Replace installs the session from a grant, then persists it. If the write
// fails the previous in-memory state is restored, the durable record is
// cleared and the error is returned.
func (s *Store) Replace(ctx context.Context, g domain.Grant) error {
	next := Authenticate(g)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	s.state = next
	if err := s.persister.Save(ctx, next); err != nil {
		s.state = prev
		if clearErr := s.persister.Clear(ctx); clearErr != nil {
			observability.FromContext(ctx).Error("failed to clear partial session record",
				slog.String("error", clearErr.Error()))
		}
		return err
	}
	return nil
}

// Clear empties memory and removes the durable record. Storage failures are
// logged, never returned.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Anonymous()
	if err := s.persister.Clear(ctx); err != nil {
		observability.FromContext(ctx).Error("failed to remove stored session",
			slog.String("error", err.Error()))
	}
}

// Expire is the forced clear performed when the backend answers 401/403
func (s *Store) Expire(ctx context.Context) {
	observability.FromContext(ctx).Info("session expired by backend")
	observability.SessionEventsTotal.WithLabelValues("expire", "ok").Inc()
	s.Clear(ctx)
}
