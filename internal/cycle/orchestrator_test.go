package cycle

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/events"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/ledger"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/publisher"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/selector"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/metrics"
)

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	entered chan struct{}
	words   []string
	labels  []string
}

func (f *fakePublisher) Publish(_ context.Context, word, attribution string) (*publisher.Result, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words = append(f.words, word)
	f.labels = append(f.labels, attribution)
	if f.err != nil {
		return nil, apperrors.ForWord(apperrors.ErrPublish, word, f.err)
	}
	return &publisher.Result{URI: "at://" + word, Design: "deep-ocean"}, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []events.PostEvent
}

func (c *captureSink) Emit(_ context.Context, e events.PostEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) Close() error { return nil }

// stalledSink blocks until the emit context ends, like a broker that never
// acknowledges.
type stalledSink struct {
	errs chan error
}

func (s *stalledSink) Emit(ctx context.Context, _ events.PostEvent) error {
	<-ctx.Done()
	s.errs <- ctx.Err()
	return ctx.Err()
}

func (s *stalledSink) Close() error { return nil }

type brokenStore struct{}

func (brokenStore) Name() string                                   { return "broken" }
func (brokenStore) ReadAll(context.Context) ([]string, error)      { return nil, nil }
func (brokenStore) Persist(context.Context, string, []string) error { return errors.New("read-only filesystem") }
func (brokenStore) Ping(context.Context) error                     { return nil }
func (brokenStore) Close() error                                   { return nil }

func setup(t *testing.T, words []string, store ledger.Store, pub Publisher, opts ...Option) (*Orchestrator, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(store)
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	sel := selector.New(words, l.Contains, rand.New(rand.NewPCG(1, 2)))
	return New(sel, l, pub, "@wordbot", opts...), l
}

func TestCyclePostsUntilExhausted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postedWords.txt")
	pub := &fakePublisher{}
	sink := &captureSink{}
	m := metrics.New()
	o, l := setup(t, []string{"alpha", "bravo", "charlie"}, ledger.NewFileStore(path), pub, WithSink(sink), WithMetrics(m))
	ctx := context.Background()

	for range 3 {
		res := o.RunOnce(ctx)
		require.NoError(t, res.Err)
		assert.Equal(t, OutcomePosted, res.Outcome)
		assert.Equal(t, "at://"+res.Word, res.URI)
		assert.True(t, l.Contains(res.Word))
	}
	assert.ElementsMatch(t, []string{"alpha", "bravo", "charlie"}, pub.words)
	assert.Equal(t, []string{"@wordbot", "@wordbot", "@wordbot"}, pub.labels)

	res := o.RunOnce(ctx)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.True(t, Exhausted(res.Err))
	assert.Len(t, pub.words, 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "bravo", "charlie"}, strings.Fields(string(data)))

	require.Len(t, sink.events, 3)
	assert.Equal(t, events.StatusPosted, sink.events[0].Status)
	assert.Equal(t, "deep-ocean", sink.events[0].Design)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(OutcomePosted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(OutcomeExhausted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WordsRemaining))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WordsPosted))

	last, ok := o.LastResult()
	require.True(t, ok)
	assert.Equal(t, OutcomeExhausted, last.Outcome)
}

func TestPublishFailureKeepsWordRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postedWords.txt")
	pub := &fakePublisher{err: errors.New("rate limited")}
	sink := &captureSink{}
	o, l := setup(t, []string{"solo", "duo"}, ledger.NewFileStore(path), pub, WithSink(sink))

	res := o.RunOnce(context.Background())
	assert.Equal(t, OutcomePublish, res.Outcome)
	assert.ErrorIs(t, res.Err, apperrors.ErrPublish)
	assert.Equal(t, "publish", res.ErrorKind)
	assert.True(t, l.Contains(res.Word))
	assert.Equal(t, 1, o.Remaining())
	assert.Equal(t, 1, o.Posted())

	reloaded := ledger.New(ledger.NewFileStore(path))
	set, err := reloaded.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Has(res.Word))

	require.Len(t, sink.events, 1)
	assert.Equal(t, events.StatusFailed, sink.events[0].Status)
	assert.Contains(t, sink.events[0].Error, "rate limited")
}

func TestPersistenceFailureSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New()
	o, l := setup(t, []string{"a", "b"}, brokenStore{}, pub, WithMetrics(m))

	res := o.RunOnce(context.Background())
	assert.Equal(t, OutcomePersistence, res.Outcome)
	assert.ErrorIs(t, res.Err, apperrors.ErrPersistence)
	assert.Empty(t, pub.words)
	assert.True(t, l.Contains(res.Word))
	assert.Equal(t, 1, o.Remaining())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerWritesTotal.WithLabelValues("error")))

	// The next cycle draws the other word, never the unconfirmed one.
	next := o.RunOnce(context.Background())
	assert.NotEqual(t, res.Word, next.Word)
}

func TestOverlappingCycleIsSkipped(t *testing.T) {
	pub := &fakePublisher{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	o, _ := setup(t, []string{"a", "b", "c"}, ledger.NewFileStore(filepath.Join(t.TempDir(), "l.txt")), pub)

	done := make(chan Result, 1)
	go func() { done <- o.RunOnce(context.Background()) }()

	select {
	case <-pub.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle never reached publish")
	}
	assert.True(t, o.Busy())

	skipped := o.RunOnce(context.Background())
	assert.Equal(t, OutcomeSkipped, skipped.Outcome)
	assert.ErrorIs(t, skipped.Err, apperrors.ErrCycleBusy)
	assert.Equal(t, "busy", skipped.ErrorKind)
	assert.Equal(t, 2, o.Remaining())

	close(pub.gate)
	first := <-done
	assert.Equal(t, OutcomePosted, first.Outcome)
	assert.False(t, o.Busy())
}

func TestStalledSinkDoesNotHoldCycle(t *testing.T) {
	sink := &stalledSink{errs: make(chan error, 1)}
	o, _ := setup(t, []string{"a", "b"}, ledger.NewFileStore(filepath.Join(t.TempDir(), "l.txt")), &fakePublisher{},
		WithSink(sink), WithEmitTimeout(50*time.Millisecond))

	start := time.Now()
	res := o.RunOnce(context.Background())
	assert.Equal(t, OutcomePosted, res.Outcome)
	assert.Empty(t, res.ErrorKind)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, <-sink.errs, context.DeadlineExceeded)
	assert.False(t, o.Busy())
}
