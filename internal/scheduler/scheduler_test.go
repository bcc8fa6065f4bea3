package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/cycle"
)

type countingRunner struct {
	calls atomic.Int32
}

func (c *countingRunner) RunOnce(context.Context) cycle.Result {
	c.calls.Add(1)
	return cycle.Result{Outcome: cycle.OutcomePosted, Word: "w"}
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every ten minutes", &countingRunner{}, false)
	assert.ErrorContains(t, err, "parsing schedule")

	_, err = New("*/10 * * * *", &countingRunner{}, false)
	assert.NoError(t, err)
}

func TestRunOnStartThenStop(t *testing.T) {
	r := &countingRunner{}
	s, err := New("*/10 * * * *", r, true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestTicksFireCycles(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real one-second tick")
	}
	r := &countingRunner{}
	s, err := New("@every 1s", r, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
