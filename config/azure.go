package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// ErrSecretNotFound is returned for secrets that are absent or have no value.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource reads named secrets.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Vault secret names and the Config fields they override.
func (c *Config) secretFields() map[string]*string {
	return map[string]*string{
		"car-data-api-key":       &c.CarDataAPIKey,
		"identity-api-key":       &c.IdentityAPIKey,
		"local-auth-secret":      &c.LocalAuthSecret,
		"appinsights-key":        &c.AppInsightsKey,
		"redis-password":         &c.RedisPassword,
		"sql-connection-string":  &c.SQLConnectionString,
		"cosmosdb-key":           &c.CosmosDBKey,
		"blob-connection-string": &c.BlobConnectionString,
	}
}

// SecretNames lists the vault secrets the platform reads.
func SecretNames() []string {
	fields := (&Config{}).secretFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

// ApplySecrets overwrites API keys and storage credentials with values from src.
// A secret that is missing or empty keeps its environment value, since each
// storage backend only needs its own credentials.
func (c *Config) ApplySecrets(ctx context.Context, src SecretSource) {
	for name, field := range c.secretFields() {
		value, err := src.GetSecret(ctx, name)
		if err != nil || value == "" {
			continue
		}
		*field = value
	}
}

// VaultURL accepts a vault name or a full vault URL.
func VaultURL(vault string) string {
	vault = strings.TrimSpace(vault)
	if strings.HasPrefix(vault, "https://") {
		return strings.TrimSuffix(vault, "/") + "/"
	}
	return fmt.Sprintf("https://%s.vault.azure.net/", vault)
}

// VaultSecrets reads platform secrets from Azure Key Vault.
type VaultSecrets struct {
	client *azsecrets.Client
	url    string
}

var _ SecretSource = (*VaultSecrets)(nil)

// NewVaultSecrets connects to the vault with DefaultAzureCredential.
func NewVaultSecrets(vault string) (*VaultSecrets, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return NewVaultSecretsWithCredential(vault, cred)
}

// NewVaultSecretsWithCredential connects to the vault with cred.
func NewVaultSecretsWithCredential(vault string, cred azcore.TokenCredential) (*VaultSecrets, error) {
	url := VaultURL(vault)
	client, err := azsecrets.NewClient(url, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client for %s: %w", url, err)
	}
	return &VaultSecrets{client: client, url: url}, nil
}

// GetSecret returns the latest version of secret name.
func (v *VaultSecrets) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isSecretNotFound(err) {
			return "", fmt.Errorf("%s in %s: %w", name, v.url, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to read secret %s from %s: %w", name, v.url, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("%s in %s has no value: %w", name, v.url, ErrSecretNotFound)
	}
	return *resp.Value, nil
}

func isSecretNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
