// Package testing provides test utilities and helpers.
package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer provides a Redis container for testing.
type RedisContainer struct {
	*redis.RedisContainer
	ConnectionString string
	// Addr is host:port for go-redis options.
	Addr string
}

// StartRedisContainer starts a Redis container for integration tests.
func StartRedisContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := redis.Run(ctx,
		"redis:7-alpine",
		redis.WithLogLevel(redis.LogLevelNotice),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Redis connection string: %w", err)
	}

	addr, err := hostPort(ctx, container, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Redis address: %w", err)
	}

	return &RedisContainer{
		RedisContainer:   container,
		ConnectionString: connStr,
		Addr:             addr,
	}, nil
}

// SQLServerContainer provides a SQL Server container for testing.
type SQLServerContainer struct {
	testcontainers.Container
	ConnectionString string
}

// StartSQLServerContainer starts a SQL Server container for integration tests.
func StartSQLServerContainer(ctx context.Context) (*SQLServerContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mcr.microsoft.com/mssql/server:2022-latest",
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": "YourStrong!Passw0rd",
			"MSSQL_PID":         "Developer",
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start SQL Server container: %w", err)
	}

	addr, err := hostPort(ctx, container, "1433")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get SQL Server address: %w", err)
	}

	return &SQLServerContainer{
		Container:        container,
		ConnectionString: fmt.Sprintf("sqlserver://sa:YourStrong!Passw0rd@%s?database=master&encrypt=disable", addr),
	}, nil
}

// PostgresContainer provides a Postgres container for testing.
type PostgresContainer struct {
	testcontainers.Container
	ConnectionString string
}

// StartPostgresContainer starts a Postgres container for integration tests.
func StartPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "autorent",
			"POSTGRES_PASSWORD": "autorent",
			"POSTGRES_DB":       "autorent",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	addr, err := hostPort(ctx, container, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Postgres address: %w", err)
	}

	return &PostgresContainer{
		Container:        container,
		ConnectionString: fmt.Sprintf("postgres://autorent:autorent@%s/autorent?sslmode=disable", addr),
	}, nil
}

// AzuriteContainer provides an Azurite container for Blob Storage emulation.
type AzuriteContainer struct {
	testcontainers.Container
	BlobEndpoint     string
	ConnectionString string
}

// Default Azurite development account.
const (
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// StartAzuriteContainer starts an Azurite blob service for integration tests.
func StartAzuriteContainer(ctx context.Context) (*AzuriteContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mcr.microsoft.com/azure-storage/azurite:latest",
		Cmd:          []string{"azurite-blob", "--blobHost", "0.0.0.0", "--skipApiVersionCheck"},
		ExposedPorts: []string{"10000/tcp"},
		WaitingFor:   wait.ForListeningPort("10000/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Azurite container: %w", err)
	}

	addr, err := hostPort(ctx, container, "10000")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Azurite address: %w", err)
	}

	blobEndpoint := fmt.Sprintf("http://%s/%s", addr, azuriteAccountName)

	return &AzuriteContainer{
		Container:    container,
		BlobEndpoint: blobEndpoint,
		ConnectionString: fmt.Sprintf(
			"DefaultEndpointsProtocol=http;AccountName=%s;AccountKey=%s;BlobEndpoint=%s;",
			azuriteAccountName, azuriteAccountKey, blobEndpoint,
		),
	}, nil
}

func hostPort(ctx context.Context, c testcontainers.Container, port string) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

// ContainerCleanup provides a cleanup function for t.Cleanup.
type ContainerCleanup interface {
	Terminate(ctx context.Context) error
}

// CleanupContainer returns a cleanup function for testing.T.Cleanup.
func CleanupContainer(ctx context.Context, c ContainerCleanup) func() {
	return func() {
		if err := c.Terminate(context.WithoutCancel(ctx)); err != nil {
			fmt.Printf("failed to terminate container: %v\n", err)
		}
	}
}
