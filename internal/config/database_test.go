package config

import (
	"context"
	"path/filepath"
	"testing"

	"course-portal/internal/domain"
	"course-portal/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresConnection_InvalidURL(t *testing.T) {
	t.Run("invalid_database_url", func(t *testing.T) {
		db, err := NewPostgresConnection("invalid://malformed")
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"memory", &Config{SessionBackend: storage.BackendMemory}},
		{"file", &Config{SessionBackend: storage.BackendFile, SessionFile: filepath.Join(t.TempDir(), "s.json")}},
		{"redis", &Config{SessionBackend: storage.BackendRedis, RedisURL: "redis://" + mr.Addr(), RedisKeyPrefix: "cp:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := OpenStorage(ctx, tt.cfg)
			require.NoError(t, err)
			defer st.Close()

			assert.Equal(t, tt.name, st.Backend)
			assert.NoError(t, st.Ping(ctx))

			require.NoError(t, st.KV.Set(ctx, "token", "T"))
			got, err := st.KV.Get(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, "T", got)

			require.NoError(t, st.KV.Delete(ctx, "token"))
			_, err = st.KV.Get(ctx, "token")
			assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		})
	}
}

func TestOpenStorage_Unknown(t *testing.T) {
	_, err := OpenStorage(context.Background(), &Config{SessionBackend: "etcd"})
	assert.Error(t, err)
}
