package vault

import (
	"context"
	"testing"

	"decision-hub/internal/config"
	"decision-hub/internal/testutil"
)

func TestReadSecret(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tc := testutil.SetupVault(t)
	defer tc.Cleanup(t)

	client, err := NewClient(&config.VaultConfig{
		Address: tc.VaultAddr,
		Token:   tc.VaultToken,
		KVMount: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx := context.Background()
	if err := client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}

	if err := client.WriteSecret(ctx, "decision-hub/llm", map[string]any{"api_key": "sk-test"}); err != nil {
		t.Fatalf("WriteSecret failed: %v", err)
	}

	value, err := client.ReadSecret(ctx, "decision-hub/llm", "api_key")
	if err != nil {
		t.Fatalf("ReadSecret failed: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("Expected sk-test, got %q", value)
	}

	if _, err := client.ReadSecret(ctx, "decision-hub/llm", "missing"); err == nil {
		t.Error("Expected an error for a missing key")
	}
	if _, err := client.ReadSecret(ctx, "decision-hub/absent", "api_key"); err == nil {
		t.Error("Expected an error for a missing secret")
	}
}
