package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"course-portal/internal/storage"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// NewPostgresConnection creates a new PostgreSQL database connection
func NewPostgresConnection(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewRedisClient parses a redis:// URL and verifies the server answers
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Storage is the opened session backend
type Storage struct {
	KV      storage.KV
	Backend string
	Ping    func(ctx context.Context) error
	Close   func() error
}

// OpenStorage opens the backend named by SESSION_BACKEND
func OpenStorage(ctx context.Context, cfg *Config) (*Storage, error) {
	noop := func() error { return nil }
	alive := func(context.Context) error { return nil }

	switch cfg.SessionBackend {
	case storage.BackendMemory:
		return &Storage{KV: storage.NewMemoryStore(), Backend: storage.BackendMemory, Ping: alive, Close: noop}, nil

	case storage.BackendFile:
		fs, err := storage.NewFileStore(cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		return &Storage{KV: fs, Backend: storage.BackendFile, Ping: alive, Close: noop}, nil

	case storage.BackendPostgres:
		db, err := NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		ps, err := storage.NewPostgresStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		closeAll := func() error { return errors.Join(ps.Close(), db.Close()) }
		return &Storage{KV: ps, Backend: storage.BackendPostgres, Ping: ps.Ping, Close: closeAll}, nil

	case storage.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rs := storage.NewRedisStore(client, cfg.RedisKeyPrefix)
		return &Storage{KV: rs, Backend: storage.BackendRedis, Ping: rs.Ping, Close: client.Close}, nil
	}

	return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}
