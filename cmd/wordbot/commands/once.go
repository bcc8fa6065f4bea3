package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/app"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/cycle"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single post cycle and exit",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	orch, err := a.Connect(ctx)
	if err != nil {
		return err
	}

	res := orch.RunOnce(ctx)
	switch res.Outcome {
	case cycle.OutcomePosted:
		fmt.Fprintf(cmd.OutOrStdout(), "posted %q: %s\n", res.Word, res.URI)
		return nil
	case cycle.OutcomeExhausted:
		slog.Warn("all words have been posted")
		return res.Err
	default:
		return fmt.Errorf("cycle %s: %s: %w", res.CycleID, res.Outcome, res.Err)
	}
}
