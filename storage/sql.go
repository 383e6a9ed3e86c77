package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"                        // Postgres driver
	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD auth
)

// Dialect selects the SQL flavor of a SQLStore.
type Dialect string

const (
	DialectSQLServer Dialect = "sqlserver"
	DialectPostgres  Dialect = "postgres"
)

// SQLConfig holds relational backend configuration.
type SQLConfig struct {
	Dialect  Dialect
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// UseMSI uses Azure AD managed identity. SQL Server only.
	UseMSI bool
	// DSN overrides every connection field above when set.
	DSN          string
	SSLMode      string
	Namespace    string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DefaultSQLConfig returns sensible defaults for the dialect.
func DefaultSQLConfig(dialect Dialect) SQLConfig {
	cfg := SQLConfig{
		Dialect:      dialect,
		Host:         "localhost",
		Database:     "autorent",
		Namespace:    "autorent",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
		MaxLifetime:  5 * time.Minute,
	}
	switch dialect {
	case DialectPostgres:
		cfg.Port = 5432
		cfg.SSLMode = "disable"
	default:
		cfg.Dialect = DialectSQLServer
		cfg.Port = 1433
	}
	return cfg
}

// ConnectionString builds the driver DSN.
func (c SQLConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Dialect {
	case DialectPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   c.Database,
		}
		q := u.Query()
		if c.SSLMode != "" {
			q.Set("sslmode", c.SSLMode)
		}
		u.RawQuery = q.Encode()
		return u.String()
	default:
		if c.UseMSI {
			return fmt.Sprintf(
				"sqlserver://%s:%d?database=%s&fedauth=ActiveDirectoryMSI",
				c.Host, c.Port, c.Database,
			)
		}
		u := url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(c.User, c.Password),
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		}
		q := u.Query()
		q.Set("database", c.Database)
		u.RawQuery = q.Encode()
		return u.String()
	}
}

func (c SQLConfig) driverName() string {
	switch c.Dialect {
	case DialectPostgres:
		return "postgres"
	default:
		if c.UseMSI {
			return "azuresql"
		}
		return "sqlserver"
	}
}

// SQLStore keeps values in a kv_store table.
type SQLStore struct {
	db     *sql.DB
	config SQLConfig
	q      queries
}

type queries struct {
	get    string
	set    string
	remove string
}

var dialectQueries = map[Dialect]queries{
	DialectSQLServer: {
		get: "SELECT value FROM kv_store WHERE namespace = @p1 AND key_name = @p2",
		set: `MERGE kv_store WITH (HOLDLOCK) AS t
USING (SELECT @p1 AS namespace, @p2 AS key_name) AS s
ON t.namespace = s.namespace AND t.key_name = s.key_name
WHEN MATCHED THEN UPDATE SET value = @p3, updated_at = SYSUTCDATETIME()
WHEN NOT MATCHED THEN INSERT (namespace, key_name, value, updated_at) VALUES (@p1, @p2, @p3, SYSUTCDATETIME());`,
		remove: "DELETE FROM kv_store WHERE namespace = @p1 AND key_name = @p2",
	},
	DialectPostgres: {
		get: "SELECT value FROM kv_store WHERE namespace = $1 AND key_name = $2",
		set: `INSERT INTO kv_store (namespace, key_name, value, updated_at) VALUES ($1, $2, $3, NOW())
ON CONFLICT (namespace, key_name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		remove: "DELETE FROM kv_store WHERE namespace = $1 AND key_name = $2",
	},
}

// NewSQLStore opens the database, verifies the connection and applies pending migrations.
func NewSQLStore(ctx context.Context, config SQLConfig) (*SQLStore, error) {
	db, err := sql.Open(config.driverName(), config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := RetrySQLOperation(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewSQLStoreFromDB(db, config)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := NewMigrator(db, config.Dialect)
	if err := m.LoadEmbedded(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := m.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// NewSQLStoreFromDB wraps an open database whose schema is already in place.
func NewSQLStoreFromDB(db *sql.DB, config SQLConfig) (*SQLStore, error) {
	q, ok := dialectQueries[config.Dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", config.Dialect)
	}
	return &SQLStore{db: db, config: config, q: q}, nil
}

// Get retrieves a value.
func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := RetrySQLOperation(ctx, func() error {
		err := s.db.QueryRowContext(ctx, s.q.get, s.config.Namespace, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrKeyNotFound
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts a value.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	return RetrySQLOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q.set, s.config.Namespace, key, value)
		return err
	})
}

// Remove deletes a key.
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	return RetrySQLOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q.remove, s.config.Namespace, key)
		return err
	})
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB instance.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}
