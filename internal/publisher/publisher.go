// Package publisher renders a word and posts it to Bluesky. Every failure is
// reported as a publish error; the caller decides what to log and never
// retries within the same cycle.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/bluesky"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/render"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/tracing"
)

const altTemplate = "An image with the word %q written in stylized text on a decorative background."

// AltText is the accessibility description attached to every image.
func AltText(word string) string {
	return fmt.Sprintf(altTemplate, word)
}

// Renderer draws the image for a word.
type Renderer interface {
	Render(word, watermark string) (*render.Image, error)
}

// Poster is the subset of the Bluesky client the publisher uses.
type Poster interface {
	UploadBlob(ctx context.Context, data []byte, mimeType string) (bluesky.Blob, error)
	CreatePost(ctx context.Context, text string, images ...bluesky.ImageEmbed) (*bluesky.PostRef, error)
}

// Result describes a successful post.
type Result struct {
	URI    string
	CID    string
	Design string
}

// Publisher renders and posts one word per call.
type Publisher struct {
	renderer Renderer
	poster   Poster
	breaker  *resilience.CircuitBreaker
	cfg      config.PublisherConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires a publisher. m may be nil.
func New(r Renderer, p Poster, cfg config.PublisherConfig, m *metrics.Metrics) *Publisher {
	pub := &Publisher{
		renderer: r,
		poster:   p,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "publisher"),
	}
	pub.breaker = resilience.NewCircuitBreaker("bluesky", resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetTimeout:     cfg.BreakerResetTimeout,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return pub
}

// BreakerState exposes the circuit state for status reporting.
func (p *Publisher) BreakerState() resilience.State {
	return p.breaker.GetState()
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Publish renders word with attribution as the watermark, uploads the image
// and creates a post whose text is the word. Errors wrap ErrPublish.
func (p *Publisher) Publish(ctx context.Context, word, attribution string) (*Result, error) {
	_, rspan := tracing.StartChildSpan(ctx, "render")
	img, err := p.renderer.Render(word, attribution)
	rspan.Fail(err)
	if err != nil {
		return nil, p.fail(word, &stageError{stage: "render", err: err})
	}

	var ref *bluesky.PostRef
	err = p.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, p.cfg.Timeout, "publish", func(ctx context.Context) error {
			uctx, uspan := tracing.StartChildSpan(ctx, "upload")
			blob, err := p.poster.UploadBlob(uctx, img.PNG, "image/png")
			uspan.Fail(err)
			if err != nil {
				return &stageError{stage: "upload", err: err}
			}
			cctx, cspan := tracing.StartChildSpan(ctx, "post")
			r, err := p.poster.CreatePost(cctx, word, bluesky.ImageEmbed{
				Blob:   blob,
				Alt:    AltText(word),
				Width:  img.Width,
				Height: img.Height,
			})
			cspan.Fail(err)
			if err != nil {
				return &stageError{stage: "post", err: err}
			}
			ref = r
			return nil
		})
	})
	if err != nil {
		return nil, p.fail(word, err)
	}

	p.logger.Info("word published", "word", word, "uri", ref.URI, "design", img.Design)
	return &Result{URI: ref.URI, CID: ref.CID, Design: img.Design}, nil
}

func (p *Publisher) fail(word string, err error) error {
	stage := "post"
	var se *stageError
	switch {
	case errors.As(err, &se):
		stage = se.stage
	case errors.Is(err, resilience.ErrCircuitOpen):
		stage = "breaker"
	case errors.Is(err, context.DeadlineExceeded):
		stage = "timeout"
	}
	if p.metrics != nil {
		p.metrics.PublishFailures.WithLabelValues(stage).Inc()
	}
	return apperrors.ForWord(apperrors.ErrPublish, word, err)
}
