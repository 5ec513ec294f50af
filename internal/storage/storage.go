// Package storage provides the durable key-value backends that mirror a
// browser's local storage for the session store.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// KV is a string key-value store. Get returns domain.ErrKeyNotFound for a
// missing key and Delete succeeds when the key is already absent.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by SESSION_BACKEND
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Scoped prefixes every key with a namespace so many browsers can share one
// backend without seeing each other's entries.
type Scoped struct {
	kv        KV
	namespace string
}

// Scope returns kv restricted to namespace. An empty namespace returns kv.
func Scope(kv KV, namespace string) KV {
	if namespace == "" {
		return kv
	}
	return &Scoped{kv: kv, namespace: namespace}
}

func (s *Scoped) key(k string) string {
	return s.namespace + ":" + k
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.key(key), value)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.key(key))
}

// ValidateBackend reports whether name is a known backend
func ValidateBackend(name string) error {
	switch strings.ToLower(name) {
	case BackendMemory, BackendFile, BackendPostgres, BackendRedis:
		return nil
	}
	return fmt.Errorf("unknown session backend %q", name)
}
