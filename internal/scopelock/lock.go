package scopelock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
	"github.com/kolmetry/kolmetry/internal/redisclient"
)

// releaseScript deletes the lock key only when it still holds our token, so
// an expired lock reacquired by another run is never released by us.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Locker serializes batch operations per scope. With Redis configured the
// lock is an advisory SET NX key shared across processes; otherwise an
// in-process table guards a single instance. Different scopes never contend.
type Locker struct {
	redis *redisclient.Client
	ttl   time.Duration

	mu   sync.Mutex
	held map[string]bool
}

// NewLocker creates a per-scope locker. ttl bounds how long a crashed batch
// run can keep a scope locked.
func NewLocker(redis *redisclient.Client, ttl time.Duration) *Locker {
	return &Locker{
		redis: redis,
		ttl:   ttl,
		held:  make(map[string]bool),
	}
}

// Acquire takes the lock for a scope, returning a release func. A second
// concurrent acquisition of the same scope fails with a concurrency error.
func (l *Locker) Acquire(ctx context.Context, scope string) (func(), error) {
	if l.redis != nil && l.redis.IsEnabled() {
		return l.acquireRedis(ctx, scope)
	}
	return l.acquireLocal(scope)
}

func (l *Locker) acquireRedis(ctx context.Context, scope string) (func(), error) {
	key := "scopelock:" + scope
	token := uuid.New().String()

	ok, err := l.redis.Get().SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		slog.Warn("Redis scope lock failed, using in-process lock", "scope", scope, "error", err)
		return l.acquireLocal(scope)
	}
	if !ok {
		return nil, apperrors.NewConcurrencyError(scope)
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.redis.Get().Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			slog.Warn("Failed to release scope lock", "scope", scope, "error", err)
		}
	}

	return release, nil
}

func (l *Locker) acquireLocal(scope string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[scope] {
		return nil, apperrors.NewConcurrencyError(scope)
	}
	l.held[scope] = true

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, scope)
	}

	return release, nil
}
