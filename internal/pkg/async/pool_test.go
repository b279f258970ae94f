package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortn/internal/pkg/async"
)

func TestPoolExecute(t *testing.T) {
	pool := async.NewPool(3)

	var running, maxRunning int32
	task := func(name string, value int) async.Task {
		return async.Task{
			Name: name,
			Execute: func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return value, nil
			},
		}
	}

	tasks := []async.Task{task("a", 1), task("b", 2), task("c", 3), task("d", 4), task("e", 5)}
	results := pool.Execute(context.Background(), tasks)

	require.Len(t, results, 5)
	assert.Equal(t, 3, results["c"].Data)
	assert.NoError(t, results["e"].Err)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxRunning), int32(3))
}

func TestPoolExecuteReportsErrorsAndPanics(t *testing.T) {
	pool := async.NewPool(2)
	boom := errors.New("boom")

	results := pool.Execute(context.Background(), []async.Task{
		{Name: "fails", Execute: func(ctx context.Context) (any, error) { return nil, boom }},
		{Name: "panics", Execute: func(ctx context.Context) (any, error) { panic("bad") }},
		{Name: "ok", Execute: func(ctx context.Context) (any, error) { return "fine", nil }},
	})

	assert.ErrorIs(t, results["fails"].Err, boom)
	assert.ErrorContains(t, results["panics"].Err, "panicked")
	assert.Equal(t, "fine", results["ok"].Data)
}

func TestPoolExecuteCancelled(t *testing.T) {
	pool := async.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Execute(ctx, []async.Task{
		{Name: "never", Execute: func(ctx context.Context) (any, error) { return 1, nil }},
	})

	require.Contains(t, results, "never")
	// The task may have raced the cancellation; either way there is a result.
	if results["never"].Err != nil {
		assert.ErrorIs(t, results["never"].Err, context.Canceled)
	}
}
