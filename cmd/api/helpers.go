package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"decision-hub/internal/config"
	"decision-hub/internal/oracle"
	"decision-hub/internal/vault"

	"github.com/redis/go-redis/v9"
)

const startupTimeout = 10 * time.Second

// connectRedis returns nil when no Redis URL is configured
func connectRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// buildOracle returns the configured scoring oracle. With Vault enabled the API key is
// read from the KV secret, otherwise LLM_API_KEY is used.
func buildOracle(cfg *config.Config) (oracle.Oracle, error) {
	if !cfg.LLM.Enabled {
		slog.Info("AI scoring disabled")
		return oracle.Disabled{}, nil
	}

	apiKey := cfg.LLM.APIKey
	if cfg.Vault.Enabled {
		key, err := loadAPIKey(&cfg.Vault)
		if err != nil {
			return nil, err
		}
		apiKey = key
		slog.Info("LLM API key loaded from Vault", "path", cfg.Vault.SecretPath)
	}

	slog.Info("AI scoring enabled", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	return oracle.NewOpenAIOracle(&cfg.LLM, apiKey), nil
}

func loadAPIKey(cfg *config.VaultConfig) (string, error) {
	client, err := vault.NewClient(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create vault client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		return "", fmt.Errorf("vault is not available: %w", err)
	}
	return client.ReadSecret(ctx, cfg.SecretPath, cfg.SecretKey)
}
