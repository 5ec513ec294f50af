package session

import (
	"context"
	"errors"
	"fmt"

	"course-portal/internal/domain"
	"course-portal/internal/storage"
)

// Persister reads and writes the durable session record
type Persister struct {
	kv storage.KV
}

func NewPersister(kv storage.KV) *Persister {
	return &Persister{kv: kv}
}

// Load reads both keys. Missing or undecodable entries yield
// ErrStorageCorrupt; backend failures are returned as-is.
func (p *Persister) Load(ctx context.Context) (State, error) {
	token, err := p.get(ctx, domain.TokenKey)
	if err != nil {
		return Anonymous(), err
	}
	user, err := p.get(ctx, domain.UserKey)
	if err != nil {
		return Anonymous(), err
	}
	return Restore(token, user)
}

func (p *Persister) get(ctx context.Context, key string) (string, error) {
	value, err := p.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Save writes both keys
func (p *Persister) Save(ctx context.Context, s State) error {
	token, user, err := s.Record()
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, domain.TokenKey, token); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := p.kv.Set(ctx, domain.UserKey, user); err != nil {
		return fmt.Errorf("failed to write user: %w", err)
	}
	return nil
}

// Clear removes both keys, attempting the second even if the first fails
func (p *Persister) Clear(ctx context.Context) error {
	return errors.Join(
		p.kv.Delete(ctx, domain.TokenKey),
		p.kv.Delete(ctx, domain.UserKey),
	)
}
