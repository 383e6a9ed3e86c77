package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/autorent/autorent-platform/pkg/logging"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendFile      Backend = "file"
	BackendRedis     Backend = "redis"
	BackendSQLServer Backend = "sqlserver"
	BackendPostgres  Backend = "postgres"
	BackendCosmos    Backend = "cosmos"
	BackendBlob      Backend = "blob"
)

// Config selects and configures a backend.
type Config struct {
	Backend  Backend
	FilePath string
	Redis    RedisConfig
	SQL      SQLConfig
	Cosmos   CosmosConfig
	Blob     BlobConfig

	// Connect attempts before giving up.
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns a file-backed configuration.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendFile,
		FilePath:   DefaultFilePath(),
		Redis:      DefaultRedisConfig(),
		SQL:        DefaultSQLConfig(DialectSQLServer),
		Cosmos:     DefaultCosmosConfig(),
		Blob:       DefaultBlobConfig(),
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Open connects to the configured backend, retrying the connect step.
func Open(ctx context.Context, cfg Config, logger *logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("storage").With("backend", string(cfg.Backend))

	connect, err := connector(cfg)
	if err != nil {
		return nil, err
	}

	var store Store
	for i := 0; i <= cfg.MaxRetries; i++ {
		store, err = connect(ctx)
		if err == nil {
			logger.Debug("storage connected", "attempt", i+1)
			return store, nil
		}
		if i == cfg.MaxRetries {
			break
		}

		logger.Warn("storage connection failed, retrying",
			"attempt", i+1,
			"retry_in", cfg.RetryDelay.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.Backend, cfg.MaxRetries+1, err)
}

func connector(cfg Config) (func(context.Context) (Store, error), error) {
	switch cfg.Backend {
	case BackendMemory:
		return func(context.Context) (Store, error) { return NewMemoryStore(), nil }, nil
	case BackendFile, "":
		path := cfg.FilePath
		if path == "" {
			path = DefaultFilePath()
		}
		return func(context.Context) (Store, error) { return NewFileStore(path) }, nil
	case BackendRedis:
		return func(ctx context.Context) (Store, error) { return NewRedisStore(ctx, cfg.Redis) }, nil
	case BackendSQLServer, BackendPostgres:
		sqlCfg := cfg.SQL
		sqlCfg.Dialect = Dialect(cfg.Backend)
		return func(ctx context.Context) (Store, error) { return NewSQLStore(ctx, sqlCfg) }, nil
	case BackendCosmos:
		return func(ctx context.Context) (Store, error) { return NewCosmosStore(ctx, cfg.Cosmos) }, nil
	case BackendBlob:
		return func(ctx context.Context) (Store, error) { return NewBlobStore(ctx, cfg.Blob) }, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
