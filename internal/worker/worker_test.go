package worker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futurehomeno/edge-niu-adapter/internal/worker"
)

func TestWorker_Do(t *testing.T) {
	t.Parallel()

	w := worker.New()

	require.NoError(t, w.Start())
	t.Cleanup(func() {
		_ = w.Stop()
	})

	result := 0
	err := w.Do(func() error {
		result = 42

		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, result)

	testErr := errors.New("test error")
	assert.ErrorIs(t, w.Do(func() error { return testErr }), testErr)
}

func TestWorker_DoSerializesJobs(t *testing.T) {
	t.Parallel()

	w := worker.New()

	require.NoError(t, w.Start())
	t.Cleanup(func() {
		_ = w.Stop()
	})

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = w.Do(func() error {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()

				return nil
			})
		}()
	}

	wg.Wait()

	assert.False(t, overlap, "jobs must not run concurrently")
}

func TestWorker_NotRunning(t *testing.T) {
	t.Parallel()

	w := worker.New()

	called := false
	err := w.Do(func() error {
		called = true

		return nil
	})

	assert.ErrorIs(t, err, worker.ErrStopped)
	assert.False(t, called)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start(), "second start is a no-op")
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "second stop is a no-op")

	assert.ErrorIs(t, w.Do(func() error { return nil }), worker.ErrStopped)

	require.NoError(t, w.Start(), "worker can be restarted")
	assert.NoError(t, w.Do(func() error { return nil }))
	require.NoError(t, w.Stop())
}

func TestWorker_RecoversPanic(t *testing.T) {
	t.Parallel()

	w := worker.New()

	require.NoError(t, w.Start())
	t.Cleanup(func() {
		_ = w.Stop()
	})

	err := w.Do(func() error {
		panic("boom")
	})

	assert.Error(t, err)
	assert.NoError(t, w.Do(func() error { return nil }), "worker keeps serving after a panic")
}
