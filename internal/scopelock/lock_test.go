package scopelock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

func TestAcquireAndRelease(t *testing.T) {
	locker := NewLocker(nil, 30*time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "2026-Q1-cardiology")
	require.NoError(t, err)

	// Held lock rejects a second acquisition.
	_, err = locker.Acquire(ctx, "2026-Q1-cardiology")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConcurrency))

	release()

	// Released lock can be taken again.
	release2, err := locker.Acquire(ctx, "2026-Q1-cardiology")
	require.NoError(t, err)
	release2()
}

func TestScopesDoNotContend(t *testing.T) {
	locker := NewLocker(nil, 30*time.Second)
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "scope-a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, "scope-b")
	require.NoError(t, err)
	releaseB()
}

func TestConcurrentAcquireAdmitsExactlyOne(t *testing.T) {
	locker := NewLocker(nil, 30*time.Second)
	ctx := context.Background()

	const goroutines = 20
	var wg, attempts sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	attempts.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "contended")
			attempts.Done()
			if err != nil {
				return
			}
			mu.Lock()
			acquired++
			mu.Unlock()
			// Hold the lock until every goroutine has made its attempt.
			attempts.Wait()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
