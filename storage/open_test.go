package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Config{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(context.Background(), Config{Backend: BackendFile, FilePath: path}, nil)
	require.NoError(t, err)

	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "mongo"}, nil)
	assert.Error(t, err)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}

	cfg := Config{
		Backend:    BackendRedis,
		Redis:      RedisConfig{Addr: "127.0.0.1:1", PoolSize: 1},
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
	_, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.NotEmpty(t, cfg.FilePath)
	assert.Equal(t, "autorent", cfg.Redis.Namespace)
}
