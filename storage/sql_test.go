package storage

import (
	"strings"
	"testing"
)

func TestSQLConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name   string
		config SQLConfig
		want   string
	}{
		{
			name: "postgres",
			config: SQLConfig{
				Dialect: DialectPostgres, Host: "db", Port: 5432, Database: "autorent",
				User: "app", Password: "p@ss", SSLMode: "disable",
			},
			want: "postgres://app:p%40ss@db:5432/autorent?sslmode=disable",
		},
		{
			name: "sqlserver",
			config: SQLConfig{
				Dialect: DialectSQLServer, Host: "db", Port: 1433, Database: "autorent",
				User: "sa", Password: "secret",
			},
			want: "sqlserver://sa:secret@db:1433?database=autorent",
		},
		{
			name: "sqlserver managed identity",
			config: SQLConfig{
				Dialect: DialectSQLServer, Host: "db.database.windows.net", Port: 1433,
				Database: "autorent", UseMSI: true,
			},
			want: "sqlserver://db.database.windows.net:1433?database=autorent&fedauth=ActiveDirectoryMSI",
		},
		{
			name:   "explicit dsn wins",
			config: SQLConfig{Dialect: DialectPostgres, DSN: "postgres://x", Host: "ignored"},
			want:   "postgres://x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.ConnectionString(); got != tt.want {
				t.Errorf("ConnectionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSQLConfig_DriverName(t *testing.T) {
	tests := []struct {
		config SQLConfig
		want   string
	}{
		{SQLConfig{Dialect: DialectPostgres}, "postgres"},
		{SQLConfig{Dialect: DialectSQLServer}, "sqlserver"},
		{SQLConfig{Dialect: DialectSQLServer, UseMSI: true}, "azuresql"},
	}
	for _, tt := range tests {
		if got := tt.config.driverName(); got != tt.want {
			t.Errorf("driverName(%+v) = %q, want %q", tt.config, got, tt.want)
		}
	}
}

func TestDefaultSQLConfig(t *testing.T) {
	if cfg := DefaultSQLConfig(DialectPostgres); cfg.Port != 5432 || cfg.SSLMode != "disable" {
		t.Errorf("unexpected postgres defaults: %+v", cfg)
	}
	if cfg := DefaultSQLConfig(""); cfg.Dialect != DialectSQLServer || cfg.Port != 1433 {
		t.Errorf("unexpected sqlserver defaults: %+v", cfg)
	}
}

func TestNewSQLStoreFromDB_UnknownDialect(t *testing.T) {
	if _, err := NewSQLStoreFromDB(nil, SQLConfig{Dialect: "oracle"}); err == nil {
		t.Error("expected error for unsupported dialect")
	}
}

func TestDialectQueries(t *testing.T) {
	for dialect, q := range dialectQueries {
		for name, stmt := range map[string]string{"get": q.get, "set": q.set, "remove": q.remove} {
			if !strings.Contains(stmt, "kv_store") {
				t.Errorf("%s %s query does not touch kv_store", dialect, name)
			}
		}
	}
	if !strings.Contains(dialectQueries[DialectPostgres].set, "ON CONFLICT") {
		t.Error("postgres set must upsert")
	}
	if !strings.Contains(dialectQueries[DialectSQLServer].set, "MERGE") {
		t.Error("sqlserver set must merge")
	}
}
