package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mapcontrol/worker"
)

func TestPoolRunsTasks(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(worker.Task{
			Ctx: context.Background(),
			Work: func() {
				ran.Add(1)
				wg.Done()
			},
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete")
	}
	require.Equal(t, int32(10), ran.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(2)
	defer pool.Shutdown()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		pool.Submit(worker.Task{
			Ctx: context.Background(),
			Work: func() {
				defer wg.Done()
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
			},
		})
	}
	wg.Wait()
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolDropsCancelledTasks(t *testing.T) {
	t.Parallel()

	pool := worker.NewPool(1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	pool.Submit(worker.Task{Ctx: ctx, Work: func() { ran.Store(true) }})

	// Give the dispatcher a chance to (wrongly) run it.
	sentinel := make(chan struct{})
	pool.Submit(worker.Task{Ctx: context.Background(), Work: func() { close(sentinel) }})
	select {
	case <-sentinel:
	case <-time.After(5 * time.Second):
		t.Fatal("sentinel task did not run")
	}
	require.False(t, ran.Load())
}
