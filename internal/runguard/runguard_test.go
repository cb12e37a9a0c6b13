package runguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, ttl, "test:"), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	guard, mr := newGuard(t, time.Minute)
	ctx := context.Background()
	decisionID := uuid.New()

	release, err := guard.Acquire(ctx, decisionID)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := guard.Acquire(ctx, decisionID); !errors.Is(err, ErrInProgress) {
		t.Errorf("Expected ErrInProgress, got %v", err)
	}

	other, err := guard.Acquire(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Expected another decision to be independent, got %v", err)
	}
	other()

	release()
	if mr.Exists("test:ai-run:" + decisionID.String()) {
		t.Error("Expected key to be removed on release")
	}

	again, err := guard.Acquire(ctx, decisionID)
	if err != nil {
		t.Fatalf("Expected acquire after release, got %v", err)
	}
	again()
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	guard, mr := newGuard(t, time.Second)
	ctx := context.Background()
	decisionID := uuid.New()

	stale, err := guard.Acquire(ctx, decisionID)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// The first holder's lock expires and another run takes over.
	mr.FastForward(2 * time.Second)
	current, err := guard.Acquire(ctx, decisionID)
	if err != nil {
		t.Fatalf("Expected acquire after expiry, got %v", err)
	}
	defer current()

	stale()

	if !mr.Exists("test:ai-run:" + decisionID.String()) {
		t.Error("A stale release must not remove the current holder's lock")
	}
	if _, err := guard.Acquire(ctx, decisionID); !errors.Is(err, ErrInProgress) {
		t.Errorf("Expected ErrInProgress, got %v", err)
	}
}

func TestNoopNeverBlocks(t *testing.T) {
	var guard Guard = Noop{}
	decisionID := uuid.New()

	for i := 0; i < 3; i++ {
		release, err := guard.Acquire(context.Background(), decisionID)
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		defer release()
	}
}
