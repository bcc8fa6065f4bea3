// Package app assembles the bot from configuration: corpus, ledger and
// selector for every command, plus the Bluesky session, publisher and cycle
// orchestrator for the commands that post.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/bluesky"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/cycle"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/events"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/ledger"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/publisher"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/render"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/selector"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/status"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/resilience"
)

// App holds the state derived at startup. The selection partition lives in
// Selector and is rebuilt on every start.
type App struct {
	Config   *config.Config
	Corpus   *corpus.Corpus
	Ledger   *ledger.Ledger
	Selector *selector.Selector
	Metrics  *metrics.Metrics

	publisher    *publisher.Publisher
	orchestrator *cycle.Orchestrator
	sink         events.Sink
}

// Open loads the corpus and ledger and partitions the corpus.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	c, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	l, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sel := selector.New(c.Words(), l.Contains, nil)
	slog.Info("word selector ready",
		"corpus", c.Source(),
		"corpus_size", c.Len(),
		"ledger_backend", l.Backend(),
		"ledger_size", l.Size(),
		"remaining", sel.Remaining(),
	)
	return &App{
		Config:   cfg,
		Corpus:   c,
		Ledger:   l,
		Selector: sel,
		Metrics:  metrics.New(),
	}, nil
}

// Connect logs in to Bluesky and builds the publisher and orchestrator.
// Rejected credentials wrap ErrConfiguration. Transient failures that outlast
// the retry budget are logged; the client logs in again on the first cycle.
func (a *App) Connect(ctx context.Context) (*cycle.Orchestrator, error) {
	client := bluesky.NewClient(a.Config.Bluesky.Service, a.Config.Bluesky.Timeout)
	err := resilience.Retry(ctx, "bluesky login", resilience.RetryConfig{
		MaxAttempts: a.Config.Publisher.LoginAttempts,
		Retryable:   func(err error) bool { return !bluesky.IsAuthError(err) },
	}, func() error {
		_, err := client.Login(ctx, a.Config.Bluesky.Identifier, a.Config.Bluesky.Password)
		return err
	})
	switch {
	case bluesky.IsAuthError(err):
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "bluesky rejected credentials for %s: %v", a.Config.Bluesky.Identifier, err)
	case err != nil:
		slog.Warn("bluesky login failed, will retry on first cycle", "error", err)
	default:
		slog.Info("bot logged in", "identifier", a.Config.Bluesky.Identifier)
	}

	r, err := render.New(nil)
	if err != nil {
		return nil, fmt.Errorf("loading renderer: %w", err)
	}
	a.publisher = publisher.New(r, client, a.Config.Publisher, a.Metrics)
	a.sink = events.NewSink(a.Config.Kafka)
	a.orchestrator = cycle.New(a.Selector, a.Ledger, a.publisher, a.Config.Publisher.Watermark,
		cycle.WithSink(a.sink),
		cycle.WithMetrics(a.Metrics),
	)
	return a.orchestrator, nil
}

// Reporter describes the current state. Cycle history and breaker state are
// included once Connect has run.
func (a *App) Reporter() *status.Reporter {
	r := &status.Reporter{
		CorpusSource: a.Corpus.Source(),
		CorpusSize:   a.Corpus.Len(),
		Ledger:       a.Ledger,
		Progress:     a.Selector,
	}
	if a.orchestrator != nil {
		r.History = a.orchestrator
	}
	if a.publisher != nil {
		r.Breaker = func() string { return a.publisher.BreakerState().String() }
	}
	return r
}

// OpsServer builds the metrics, health and status HTTP server.
func (a *App) OpsServer() *http.Server {
	checker := health.NewChecker()
	checker.Register("ledger", health.PingCheck(a.Ledger.Ping))
	checker.Register("corpus", status.CorpusCheck(a.Selector))
	reporter := a.Reporter()
	srv := metrics.NewServer(a.Config.Ops.Port, a.Metrics, func(mux *http.ServeMux) {
		checker.Mount(mux)
		mux.HandleFunc("GET /api/v1/status", reporter.Handler())
	})
	srv.Handler = middleware.Chain(srv.Handler,
		middleware.Logging(slog.Default().With("component", "ops")),
		middleware.Metrics(a.Metrics),
	)
	return srv
}

// Close releases the ledger and event sink.
func (a *App) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			slog.Warn("closing event sink", "error", err)
		}
	}
	if err := a.Ledger.Close(); err != nil {
		slog.Warn("closing ledger", "error", err)
	}
}
