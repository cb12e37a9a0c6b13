package vault

import (
	"context"
	"fmt"

	"decision-hub/internal/config"

	"github.com/hashicorp/vault/api"
)

// Client wraps the HashiCorp Vault API for reading KV v2 secrets
type Client struct {
	client  *api.Client
	kvMount string
}

// NewClient creates a new Vault client
func NewClient(cfg *config.VaultConfig) (*Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:  client,
		kvMount: cfg.KVMount,
	}, nil
}

// HealthCheck verifies that Vault is reachable, initialized and unsealed
func (c *Client) HealthCheck(ctx context.Context) error {
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// ReadSecret reads one string field of the KV v2 secret at path
func (c *Client) ReadSecret(ctx context.Context, path, key string) (string, error) {
	secret, err := c.client.KVv2(c.kvMount).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", path, err)
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret %s has no value for %q", path, key)
	}

	return value, nil
}

// WriteSecret stores data as a new version of the KV v2 secret at path
func (c *Client) WriteSecret(ctx context.Context, path string, data map[string]any) error {
	if _, err := c.client.KVv2(c.kvMount).Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to write secret %s: %w", path, err)
	}
	return nil
}
