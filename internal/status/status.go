// Package status reports how far through the corpus the bot is, over HTTP
// as JSON and on the terminal.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/cycle"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/health"
)

// Progress is the selector's view of the corpus.
type Progress interface {
	Remaining() int
	Posted() int
}

// LedgerInfo describes the posted-word store.
type LedgerInfo interface {
	Backend() string
	Size() int
}

// History exposes cycle state. It is nil when no scheduler is running.
type History interface {
	LastResult() (cycle.Result, bool)
	Busy() bool
}

// Report is a point-in-time snapshot.
type Report struct {
	CorpusSource  string        `json:"corpus_source"`
	CorpusSize    int           `json:"corpus_size"`
	Posted        int           `json:"posted"`
	Remaining     int           `json:"remaining"`
	LedgerBackend string        `json:"ledger_backend"`
	LedgerSize    int           `json:"ledger_size"`
	Breaker       string        `json:"circuit_breaker,omitempty"`
	Busy          bool          `json:"cycle_in_progress"`
	LastCycle     *cycle.Result `json:"last_cycle,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// Reporter assembles Reports.
type Reporter struct {
	CorpusSource string
	CorpusSize   int
	Ledger       LedgerInfo
	Progress     Progress
	History      History
	Breaker      func() string
}

func (r *Reporter) Report() Report {
	rep := Report{
		CorpusSource:  r.CorpusSource,
		CorpusSize:    r.CorpusSize,
		Posted:        r.Progress.Posted(),
		Remaining:     r.Progress.Remaining(),
		LedgerBackend: r.Ledger.Backend(),
		LedgerSize:    r.Ledger.Size(),
		GeneratedAt:   time.Now().UTC(),
	}
	if r.Breaker != nil {
		rep.Breaker = r.Breaker()
	}
	if r.History != nil {
		rep.Busy = r.History.Busy()
		if last, ok := r.History.LastResult(); ok {
			rep.LastCycle = &last
		}
	}
	return rep
}

// Handler serves the report as JSON.
func (r *Reporter) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(r.Report())
	}
}

// CorpusCheck is degraded once every word has been posted.
func CorpusCheck(p Progress) health.Check {
	return func(context.Context) health.ComponentHealth {
		if p.Remaining() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "corpus exhausted"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words remaining", p.Remaining())}
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#64ffda"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8892b0")).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e6f1ff"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff6b6b"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#233554")).Padding(0, 1)
)

// Render formats rep for a terminal.
func Render(rep Report) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	pct := 0.0
	if rep.CorpusSize > 0 {
		pct = 100 * float64(rep.Posted) / float64(rep.CorpusSize)
	}
	rows := []string{
		titleStyle.Render("wordbot"),
		row("corpus", fmt.Sprintf("%s (%d words)", rep.CorpusSource, rep.CorpusSize)),
		row("posted", fmt.Sprintf("%d (%.1f%%)", rep.Posted, pct)),
		row("remaining", fmt.Sprintf("%d", rep.Remaining)),
		row("ledger", fmt.Sprintf("%s, %d entries", rep.LedgerBackend, rep.LedgerSize)),
	}
	if rep.Breaker != "" {
		rows = append(rows, row("breaker", rep.Breaker))
	}
	if rep.LastCycle != nil {
		rows = append(rows, row("last cycle", strings.TrimSpace(rep.LastCycle.Outcome+" "+rep.LastCycle.Word)))
	}
	if rep.Remaining == 0 {
		rows = append(rows, warnStyle.Render("corpus exhausted"))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
