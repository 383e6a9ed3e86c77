package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations
var migrationFS embed.FS

// Migration represents a single schema migration.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

// MigrationStatus represents the status of a migration.
type MigrationStatus struct {
	Version    int
	Name       string
	Applied    bool
	ExecutedAt *time.Time
}

// Migrator applies the kv_store schema.
type Migrator struct {
	db         *sql.DB
	dialect    Dialect
	tableName  string
	migrations []Migration
}

// MigratorOption configures the migrator.
type MigratorOption func(*Migrator)

// WithTableName sets the migrations tracking table name.
func WithTableName(name string) MigratorOption {
	return func(m *Migrator) {
		m.tableName = name
	}
}

// NewMigrator creates a new migrator.
func NewMigrator(db *sql.DB, dialect Dialect, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		db:        db,
		dialect:   dialect,
		tableName: "_migrations",
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// LoadEmbedded loads the migrations bundled for the migrator's dialect.
func (m *Migrator) LoadEmbedded() error {
	return m.LoadFromFS(migrationFS, path.Join("migrations", string(m.dialect)))
}

// LoadFromFS loads migrations from a filesystem.
// Expected names: 001_create_kv_store.up.sql, 001_create_kv_store.down.sql
func (m *Migrator) LoadFromFS(fsys fs.FS, dir string) error {
	migrations, err := parseMigrations(fsys, dir)
	if err != nil {
		return err
	}
	m.migrations = migrations
	return nil
}

// Migrations returns the loaded migrations in version order.
func (m *Migrator) Migrations() []Migration {
	return m.migrations
}

func parseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		parts := strings.SplitN(name, "_", 2)
		if len(parts) < 2 {
			continue
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		if _, ok := byVersion[version]; !ok {
			byVersion[version] = &Migration{Version: version}
		}
		migration := byVersion[version]

		switch {
		case strings.HasSuffix(name, ".up.sql"):
			migration.UpScript = string(content)
			migration.Name = strings.TrimSuffix(parts[1], ".up.sql")
		case strings.HasSuffix(name, ".down.sql"):
			migration.DownScript = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		migrations = append(migrations, *migration)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (m *Migrator) placeholder(n int) string {
	if m.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "@p" + strconv.Itoa(n)
}

// Initialize creates the migrations tracking table.
func (m *Migrator) Initialize(ctx context.Context) error {
	var query string
	switch m.dialect {
	case DialectPostgres:
		query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, m.tableName)
	default:
		query = fmt.Sprintf(`
		IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='%s' AND xtype='U')
		CREATE TABLE %s (
			version INT PRIMARY KEY,
			name NVARCHAR(255) NOT NULL,
			executed_at DATETIME2 NOT NULL DEFAULT GETUTCDATE()
		)`, m.tableName, m.tableName)
	}

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Status returns the migration status.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	executed := make(map[int]time.Time)
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT version, executed_at FROM %s", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		var executedAt time.Time
		if err := rows.Scan(&version, &executedAt); err != nil {
			return nil, err
		}
		executed[version] = executedAt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, len(m.migrations))
	for i, migration := range m.migrations {
		status := MigrationStatus{
			Version: migration.Version,
			Name:    migration.Name,
		}
		if t, ok := executed[migration.Version]; ok {
			status.Applied = true
			status.ExecutedAt = &t
		}
		statuses[i] = status
	}

	return statuses, nil
}

// Up runs all pending migrations and returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i, status := range statuses {
		if status.Applied {
			continue
		}

		migration := m.migrations[i]
		if migration.UpScript == "" {
			return applied, fmt.Errorf("migration %d has no up script", migration.Version)
		}

		if err := m.runMigration(ctx, migration, true); err != nil {
			return applied, fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		applied++
	}

	return applied, nil
}

// Down rolls back the last applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	for i := len(statuses) - 1; i >= 0; i-- {
		if !statuses[i].Applied {
			continue
		}
		migration := m.migrations[i]
		if migration.DownScript == "" {
			return fmt.Errorf("migration %d has no down script", migration.Version)
		}
		return m.runMigration(ctx, migration, false)
	}

	return nil
}

func (m *Migrator) runMigration(ctx context.Context, migration Migration, isUp bool) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := m.execMigration(ctx, tx, migration, isUp); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

func (m *Migrator) execMigration(ctx context.Context, tx *sql.Tx, migration Migration, isUp bool) error {
	script := migration.DownScript
	if isUp {
		script = migration.UpScript
	}

	for _, stmt := range splitStatements(script) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}

	if isUp {
		query := fmt.Sprintf("INSERT INTO %s (version, name) VALUES (%s, %s)",
			m.tableName, m.placeholder(1), m.placeholder(2))
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE version = %s", m.tableName, m.placeholder(1))
	if _, err := tx.ExecContext(ctx, query, migration.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}

// splitStatements splits a script on GO batch separators.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		if strings.EqualFold(strings.TrimSpace(line), "GO") {
			if current.Len() > 0 {
				statements = append(statements, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
