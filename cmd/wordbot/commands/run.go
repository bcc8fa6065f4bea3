package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/app"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var runOnStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Post on the configured cron schedule until interrupted",
	RunE:  runScheduler,
}

func init() {
	runCmd.Flags().BoolVar(&runOnStart, "now", false, "run one cycle immediately before waiting for the schedule")
	rootCmd.AddCommand(runCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if runOnStart {
		cfg.Schedule.RunOnStart = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	defer a.Close()

	orch, err := a.Connect(ctx)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	sched, err := scheduler.New(cfg.Schedule.Cron, orch, cfg.Schedule.RunOnStart)
	if err != nil {
		slog.Error("invalid schedule", "cron", cfg.Schedule.Cron, "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if cfg.Ops.Enabled {
		server := a.OpsServer()
		g.Go(func() error {
			slog.Info("ops server listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	slog.Info("wordbot running", "cron", cfg.Schedule.Cron, "remaining", a.Selector.Remaining())
	if err := g.Wait(); err != nil {
		slog.Error("wordbot stopped with error", "error", err)
		return err
	}
	slog.Info("wordbot stopped")
	return nil
}
