// Package cycle runs the bot's unit of work: draw an unposted word, record it
// in the ledger, then publish it.
//
// The word is recorded before publishing and is never un-recorded, so a
// failed publish skips the word for good rather than risking a repeat.
// Only one cycle runs at a time; a trigger that arrives while a cycle is in
// flight is skipped.
package cycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/events"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/publisher"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/tracing"
)

const defaultEmitTimeout = 10 * time.Second

// Outcome labels.
const (
	OutcomePosted      = "posted"
	OutcomeExhausted   = "exhausted"
	OutcomePersistence = "persistence_failed"
	OutcomePublish     = "publish_failed"
	OutcomeSkipped     = "skipped"
)

// Drawer hands out unposted words.
type Drawer interface {
	Draw() (string, error)
	Remaining() int
	Posted() int
}

// Recorder durably marks a word as posted.
type Recorder interface {
	Record(ctx context.Context, word string) error
}

// Publisher renders and posts a word.
type Publisher interface {
	Publish(ctx context.Context, word, attribution string) (*publisher.Result, error)
}

// Result summarises one cycle.
type Result struct {
	CycleID   string        `json:"cycle_id"`
	Word      string        `json:"word,omitempty"`
	Outcome   string        `json:"outcome"`
	URI       string        `json:"uri,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Orchestrator sequences selector, ledger and publisher.
type Orchestrator struct {
	selector    Drawer
	ledger      Recorder
	publisher   Publisher
	sink        events.Sink
	metrics     *metrics.Metrics
	attribution string
	emitTimeout time.Duration
	logger      *slog.Logger

	busy atomic.Bool
	mu   sync.RWMutex
	last *Result
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithSink sends post events to sink.
func WithSink(sink events.Sink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithMetrics records cycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithEmitTimeout bounds how long a cycle waits on the event sink.
func WithEmitTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.emitTimeout = d }
}

// New builds an orchestrator. attribution is rendered into every image.
func New(selector Drawer, ledger Recorder, pub Publisher, attribution string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		selector:    selector,
		ledger:      ledger,
		publisher:   pub,
		sink:        events.NopSink{},
		attribution: attribution,
		emitTimeout: defaultEmitTimeout,
		logger:      slog.Default().With("component", "cycle"),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.updateProgress()
	return o
}

// RunOnce executes one cycle. It never panics on per-cycle failures: the
// outcome and error are returned in the Result and logged with the word.
func (o *Orchestrator) RunOnce(ctx context.Context) Result {
	start := time.Now()
	res := Result{CycleID: uuid.NewString(), StartedAt: start.UTC()}
	ctx = logger.WithCycleID(ctx, res.CycleID)
	log := o.logger.With("cycle_id", res.CycleID)

	if !o.busy.CompareAndSwap(false, true) {
		res.Outcome = OutcomeSkipped
		res.Err = apperrors.New(apperrors.ErrCycleBusy, "previous cycle still running")
		res.Error = res.Err.Error()
		res.ErrorKind = apperrors.Kind(res.Err)
		res.Duration = time.Since(start)
		log.Warn("cycle skipped, previous cycle still running")
		o.observe(res)
		return res
	}
	defer o.busy.Store(false)

	ctx, span := tracing.StartSpan(ctx, "cycle", res.CycleID)
	res = o.run(ctx, log, res)
	res.Duration = time.Since(start)
	if res.Err != nil {
		res.ErrorKind = apperrors.Kind(res.Err)
		log.Debug("cycle failed", "outcome", res.Outcome, "error_kind", res.ErrorKind)
	}
	span.SetAttr("outcome", res.Outcome)
	span.End()
	span.Log(log)
	o.observe(res)
	o.mu.Lock()
	last := res
	o.last = &last
	o.mu.Unlock()
	return res
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, res Result) Result {
	word, err := o.selector.Draw()
	if err != nil {
		res.Outcome = OutcomeExhausted
		res.Err = err
		res.Error = err.Error()
		log.Error("no word available", "error", err, "remaining", o.selector.Remaining())
		return res
	}
	res.Word = word
	log = log.With("word", word)

	rctx, rspan := tracing.StartChildSpan(ctx, "ledger.record")
	err = o.ledger.Record(rctx, word)
	rspan.Fail(err)
	if err != nil {
		// The word has left the active region and stays out of it. A word
		// whose ledger write is unconfirmed is never published.
		if o.metrics != nil {
			o.metrics.LedgerWritesTotal.WithLabelValues("error").Inc()
		}
		res.Outcome = OutcomePersistence
		res.Err = err
		res.Error = err.Error()
		log.Error("recording word failed, durability unknown", "error", err)
		o.updateProgress()
		return res
	}
	if o.metrics != nil {
		o.metrics.LedgerWritesTotal.WithLabelValues("ok").Inc()
	}
	o.updateProgress()
	log.Info("posting word")

	pctx, pspan := tracing.StartChildSpan(ctx, "publish")
	post, err := o.publisher.Publish(pctx, word, o.attribution)
	pspan.Fail(err)
	if err != nil {
		res.Outcome = OutcomePublish
		res.Err = err
		res.Error = err.Error()
		log.Error("publish failed, word stays recorded", "error", err)
		o.emit(ctx, log, res, "")
		return res
	}
	res.Outcome = OutcomePosted
	res.URI = post.URI
	o.emit(ctx, log, res, post.Design)
	return res
}

func (o *Orchestrator) emit(ctx context.Context, log *slog.Logger, res Result, design string) {
	status := events.StatusPosted
	if res.Outcome != OutcomePosted {
		status = events.StatusFailed
	}
	ev := events.NewPostEvent(res.CycleID, res.Word, status)
	ev.URI = res.URI
	ev.Design = design
	ev.Error = res.Error
	ectx, cancel := context.WithTimeout(ctx, o.emitTimeout)
	defer cancel()
	if err := o.sink.Emit(ectx, ev); err != nil {
		log.Warn("emitting post event failed", "error", err)
	}
}

func (o *Orchestrator) observe(res Result) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveCycle(res.Outcome, res.Duration)
}

func (o *Orchestrator) updateProgress() {
	if o.metrics != nil {
		o.metrics.SetProgress(o.selector.Remaining(), o.selector.Posted())
	}
}

// Busy reports whether a cycle is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// LastResult returns the most recent completed cycle, if any.
func (o *Orchestrator) LastResult() (Result, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return Result{}, false
	}
	return *o.last, true
}

// Remaining returns the number of words left to post.
func (o *Orchestrator) Remaining() int {
	return o.selector.Remaining()
}

// Posted returns the number of corpus words already posted.
func (o *Orchestrator) Posted() int {
	return o.selector.Posted()
}

// Exhausted reports whether err means the corpus has run out.
func Exhausted(err error) bool {
	return errors.Is(err, apperrors.ErrExhausted)
}
