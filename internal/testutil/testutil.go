package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"decision-hub/internal/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
)

// TestContainers holds references to test containers
type TestContainers struct {
	PostgresContainer *postgres.PostgresContainer
	VaultContainer    *vault.VaultContainer
	DB                *sql.DB
	DBConnString      string
	VaultToken        string
	VaultAddr         string
}

// SetupTestContainers starts PostgreSQL and applies the project migrations
func SetupTestContainers(t *testing.T) *TestContainers {
	t.Helper()
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("decisionhub_test"),
		postgres.WithUsername("decisionhub_test"),
		postgres.WithPassword("decisionhub_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	tc := &TestContainers{PostgresContainer: postgresContainer}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tc.Cleanup(t)
		t.Fatalf("Failed to get connection string: %v", err)
	}
	tc.DBConnString = connStr

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		tc.Cleanup(t)
		t.Fatalf("Failed to connect to database: %v", err)
	}
	tc.DB = db

	if err := db.PingContext(ctx); err != nil {
		tc.Cleanup(t)
		t.Fatalf("Failed to ping database: %v", err)
	}

	if _, err := database.NewMigrationExecutor(db).RunMigrations(ctx, MigrationsDir(t)); err != nil {
		tc.Cleanup(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return tc
}

// SetupVault starts a dev-mode Vault with a KV v2 mount at secret/
func SetupVault(t *testing.T) *TestContainers {
	t.Helper()
	ctx := context.Background()

	vaultContainer, err := vault.Run(ctx,
		"hashicorp/vault:1.15",
		vault.WithToken("test-token"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Vault server started!").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start Vault container: %v", err)
	}

	tc := &TestContainers{VaultContainer: vaultContainer, VaultToken: "test-token"}

	vaultAddr, err := vaultContainer.HttpHostAddress(ctx)
	if err != nil {
		tc.Cleanup(t)
		t.Fatalf("Failed to get Vault address: %v", err)
	}
	tc.VaultAddr = vaultAddr

	return tc
}

// Cleanup terminates all test containers
func (tc *TestContainers) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if tc.DB != nil {
		_ = tc.DB.Close()
	}

	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}

	if tc.VaultContainer != nil {
		if err := tc.VaultContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate Vault container: %v", err)
		}
	}
}

// MigrationsDir finds the project's migrations directory from a package directory
func MigrationsDir(t *testing.T) string {
	t.Helper()

	for _, dir := range []string{
		filepath.Join("..", "..", "migrations"),
		filepath.Join("..", "..", "..", "migrations"),
		"migrations",
	} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	wd, _ := os.Getwd()
	t.Fatalf("Migrations directory not found from %s", wd)
	return ""
}
