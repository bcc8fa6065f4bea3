// Package scheduler fires the posting cycle on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/cycle"
)

// Runner executes one cycle.
type Runner interface {
	RunOnce(ctx context.Context) cycle.Result
}

// Scheduler triggers a Runner on a standard five-field cron expression or a
// descriptor such as "@every 10m".
type Scheduler struct {
	spec       string
	schedule   cron.Schedule
	runner     Runner
	runOnStart bool
	logger     *slog.Logger
}

// New validates spec and returns a scheduler. With runOnStart set, Run fires
// one cycle immediately before waiting for the first tick.
func New(spec string, runner Runner, runOnStart bool) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec:       spec,
		schedule:   schedule,
		runner:     runner,
		runOnStart: runOnStart,
		logger:     slog.Default().With("component", "scheduler"),
	}, nil
}

// Run blocks until ctx is cancelled, then waits for an in-flight cycle to
// finish. A tick that arrives while a cycle is still running is skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	log := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	id := c.Schedule(s.schedule, cron.FuncJob(func() { s.fire(ctx) }))

	if s.runOnStart {
		s.fire(ctx)
	}
	c.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "next", c.Entry(id).Next)

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := s.runner.RunOnce(ctx)
	switch res.Outcome {
	case cycle.OutcomePosted:
		s.logger.Info("cycle complete", "word", res.Word, "uri", res.URI, "duration", res.Duration)
	case cycle.OutcomeExhausted:
		s.logger.Error("word corpus exhausted, nothing will be posted until the corpus or ledger changes")
	default:
		s.logger.Warn("cycle did not post", "outcome", res.Outcome, "word", res.Word, "error", res.Error)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
