package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// CosmosConfig holds Cosmos DB configuration.
type CosmosConfig struct {
	Endpoint     string
	DatabaseName string
	Container    string
	// Key is optional. When empty, the default Azure credential chain is used.
	Key       string
	Namespace string
	// CreateIfMissing creates the database and container on open.
	CreateIfMissing bool
}

// DefaultCosmosConfig returns sensible defaults.
func DefaultCosmosConfig() CosmosConfig {
	return CosmosConfig{
		DatabaseName: "autorent",
		Container:    "kv_store",
		Namespace:    "autorent",
	}
}

// kvDocument is the stored item. The namespace is the partition key.
type kvDocument struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CosmosStore keeps one document per key.
type CosmosStore struct {
	container *azcosmos.ContainerClient
	config    CosmosConfig
}

// NewCosmosStore connects to Cosmos DB.
func NewCosmosStore(ctx context.Context, config CosmosConfig) (*CosmosStore, error) {
	client, err := newCosmosClient(config)
	if err != nil {
		return nil, err
	}

	if config.CreateIfMissing {
		if err := ensureCosmosContainer(ctx, client, config); err != nil {
			return nil, err
		}
	}

	database, err := client.NewDatabase(config.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	container, err := database.NewContainer(config.Container)
	if err != nil {
		return nil, fmt.Errorf("failed to get container %s: %w", config.Container, err)
	}

	return &CosmosStore{container: container, config: config}, nil
}

func newCosmosClient(config CosmosConfig) (*azcosmos.Client, error) {
	if config.Key != "" {
		cred, err := azcosmos.NewKeyCredential(config.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to create key credential: %w", err)
		}
		client, err := azcosmos.NewClientWithKey(config.Endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cosmos client with key: %w", err)
		}
		return client, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default credential: %w", err)
	}
	client, err := azcosmos.NewClient(config.Endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos client: %w", err)
	}
	return client, nil
}

// ensureCosmosContainer creates the database and the kv container when absent.
func ensureCosmosContainer(ctx context.Context, client *azcosmos.Client, config CosmosConfig) error {
	_, err := client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: config.DatabaseName}, nil)
	if err != nil && !isStatus(err, http.StatusConflict) {
		return fmt.Errorf("failed to create database: %w", err)
	}

	database, err := client.NewDatabase(config.DatabaseName)
	if err != nil {
		return err
	}

	props := azcosmos.ContainerProperties{
		ID: config.Container,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{"/namespace"},
		},
		IndexingPolicy: &azcosmos.IndexingPolicy{
			IndexingMode: azcosmos.IndexingModeConsistent,
			Automatic:    true,
			IncludedPaths: []azcosmos.IncludedPath{
				{Path: "/namespace/?"},
				{Path: "/updated_at/?"},
			},
			ExcludedPaths: []azcosmos.ExcludedPath{
				{Path: "/*"},
			},
		},
	}

	_, err = database.CreateContainer(ctx, props, nil)
	if err != nil && !isStatus(err, http.StatusConflict) {
		return fmt.Errorf("failed to create container %s: %w", config.Container, err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func (c *CosmosStore) partitionKey() azcosmos.PartitionKey {
	return azcosmos.NewPartitionKeyString(c.config.Namespace)
}

// Get reads the document for key.
func (c *CosmosStore) Get(ctx context.Context, key string) (string, error) {
	var resp azcosmos.ItemResponse
	err := RetryAzureOperation(ctx, func() error {
		var readErr error
		resp, readErr = c.container.ReadItem(ctx, c.partitionKey(), key, nil)
		return readErr
	})
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read item: %w", err)
	}

	var doc kvDocument
	if err := json.Unmarshal(resp.Value, &doc); err != nil {
		return "", fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return doc.Value, nil
}

// Set upserts the document for key.
func (c *CosmosStore) Set(ctx context.Context, key, value string) error {
	data, err := json.Marshal(kvDocument{
		ID:        key,
		Namespace: c.config.Namespace,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return RetryAzureOperation(ctx, func() error {
		_, err := c.container.UpsertItem(ctx, c.partitionKey(), data, nil)
		return err
	})
}

// Remove deletes the document for key.
func (c *CosmosStore) Remove(ctx context.Context, key string) error {
	err := RetryAzureOperation(ctx, func() error {
		_, err := c.container.DeleteItem(ctx, c.partitionKey(), key, nil)
		return err
	})
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Ping reads the container properties.
func (c *CosmosStore) Ping(ctx context.Context) error {
	_, err := c.container.Read(ctx, nil)
	return err
}
