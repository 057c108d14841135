package syncq_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/syncq"
)

type chanNotifier chan bool

func (n chanNotifier) Connectivity() <-chan bool {
	return n
}

func waitResult(t *testing.T, results <-chan syncq.Result) syncq.Result {
	t.Helper()

	select {
	case res := <-results:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no sync run happened")
	}

	return syncq.Result{}
}

func startRunner(
	t *testing.T,
	h *harness,
	opts ...syncq.RunnerOption,
) <-chan syncq.Result {
	t.Helper()

	results := make(chan syncq.Result, 8)

	opts = append(opts,
		syncq.WithInterval(time.Hour),
		syncq.WithResultHandler(func(res syncq.Result) {
			results <- res
		}),
	)

	r := syncq.NewRunner(h.queue, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	go func() {
		done <- r.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return results
}

func TestRunnerProcessesOnStartWhenOnline(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	results := startRunner(t, h, syncq.WithNotifier(make(chanNotifier)))

	assert.Equal(t, syncq.Result{Flushed: 1}, waitResult(t, results))
}

func TestRunnerProcessesWhenConnectivityReturns(t *testing.T) {
	h := newHarness(t)
	h.backend.setOffline(true)
	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	changes := make(chanNotifier)
	results := startRunner(t, h, syncq.WithNotifier(changes))

	h.backend.setOffline(false)
	changes <- true

	assert.Equal(t, syncq.Result{Flushed: 1}, waitResult(t, results))
	require.Len(t, h.backend.delivered(), 1)
}

func TestRunnerProbesBackend(t *testing.T) {
	h := newHarness(t)
	h.backend.setOffline(true)
	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	results := startRunner(t, h, syncq.WithProbeInterval(10*time.Millisecond))

	h.backend.setOffline(false)

	assert.Equal(t, syncq.Result{Flushed: 1}, waitResult(t, results))
}

func TestRunnerWithoutBackend(t *testing.T) {
	h := newHarness(t, syncq.WithBackend(nil))

	err := syncq.NewRunner(h.queue).Run(context.Background())
	assert.True(t, syncq.IsNoBackend(err))
}
