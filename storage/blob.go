package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobConfig holds Azure Blob Storage configuration.
type BlobConfig struct {
	// ConnectionString wins over AccountURL when both are set.
	ConnectionString string
	AccountURL       string
	Container        string
	Namespace        string
	CreateIfMissing  bool
}

// DefaultBlobConfig returns sensible defaults.
func DefaultBlobConfig() BlobConfig {
	return BlobConfig{
		Container: "autorent-state",
		Namespace: "autorent",
	}
}

// BlobStore keeps each key as a block blob.
type BlobStore struct {
	client *azblob.Client
	config BlobConfig
}

// NewBlobStore creates a blob-backed store.
func NewBlobStore(ctx context.Context, config BlobConfig) (*BlobStore, error) {
	var client *azblob.Client
	var err error

	if config.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(config.ConnectionString, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", credErr)
		}
		client, err = azblob.NewClient(config.AccountURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	if config.CreateIfMissing {
		_, err := client.CreateContainer(ctx, config.Container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("failed to create container %s: %w", config.Container, err)
		}
	}

	return &BlobStore{client: client, config: config}, nil
}

func (b *BlobStore) blobName(key string) string {
	return blobName(b.config.Namespace, key)
}

func blobName(namespace, key string) string {
	name := url.PathEscape(key) + ".json"
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// Get downloads the blob for key.
func (b *BlobStore) Get(ctx context.Context, key string) (string, error) {
	var data []byte
	err := RetryAzureOperation(ctx, func() error {
		resp, err := b.client.DownloadStream(ctx, b.config.Container, b.blobName(key), nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to download blob: %w", err)
	}
	return string(data), nil
}

// Set uploads the value, replacing any existing blob.
func (b *BlobStore) Set(ctx context.Context, key, value string) error {
	return RetryAzureOperation(ctx, func() error {
		_, err := b.client.UploadBuffer(ctx, b.config.Container, b.blobName(key), []byte(value), nil)
		return err
	})
}

// Remove deletes the blob for key.
func (b *BlobStore) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteBlob(ctx, b.config.Container, b.blobName(key), nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
