// Package runguard keeps a single AI evaluation per decision in flight across replicas.
//
// The guard only avoids paying for duplicate oracle calls. Correctness of the stored
// evaluations comes from the database transaction that writes them.
package runguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInProgress is returned while another run holds the guard
var ErrInProgress = errors.New("AI evaluation already in progress")

// Guard serializes AI runs per decision
type Guard interface {
	// Acquire takes the guard for decisionID. The returned release must be called once
	// the run is over.
	Acquire(ctx context.Context, decisionID uuid.UUID) (release func(), err error)
}

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a Guard backed by SET NX PX
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisGuard creates a guard whose locks expire after ttl
func NewRedisGuard(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisGuard {
	return &RedisGuard{
		client: client,
		ttl:    ttl,
		prefix: keyPrefix + "ai-run:",
	}
}

func (g *RedisGuard) key(decisionID uuid.UUID) string {
	return g.prefix + decisionID.String()
}

// Acquire implements Guard
func (g *RedisGuard) Acquire(ctx context.Context, decisionID uuid.UUID) (func(), error) {
	key := g.key(decisionID)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run guard: %w", err)
	}
	if !ok {
		return nil, ErrInProgress
	}

	release := func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			slog.Warn("Failed to release run guard", "decision_id", decisionID, "error", err)
		}
	}
	return release, nil
}

// Noop is a Guard that never blocks, used when Redis is not configured
type Noop struct{}

// Acquire implements Guard
func (Noop) Acquire(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}
