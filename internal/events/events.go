// Package events emits one record per published or failed word so other
// systems can follow the bot's output.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/kafka"
	"github.com/google/uuid"
)

const (
	StatusPosted = "posted"
	StatusFailed = "failed"
)

// PostEvent describes the outcome of publishing one word.
type PostEvent struct {
	ID        string    `json:"id"`
	CycleID   string    `json:"cycle_id"`
	Word      string    `json:"word"`
	Status    string    `json:"status"`
	URI       string    `json:"uri,omitempty"`
	Design    string    `json:"design,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPostEvent stamps an event with a fresh ID and the current time.
func NewPostEvent(cycleID, word, status string) PostEvent {
	return PostEvent{
		ID:        uuid.NewString(),
		CycleID:   cycleID,
		Word:      word,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// Sink receives post events.
type Sink interface {
	Emit(ctx context.Context, event PostEvent) error
	Close() error
}

// NewSink returns a Kafka-backed sink when brokers are configured and a
// no-op sink otherwise.
func NewSink(cfg config.KafkaConfig) Sink {
	if !cfg.Enabled() {
		return NopSink{}
	}
	slog.Info("post events enabled", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return NewKafkaSink(kafka.NewProducer(cfg))
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(context.Context, PostEvent) error { return nil }
func (NopSink) Close() error                          { return nil }

type eventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

// KafkaSink writes events keyed by word.
type KafkaSink struct {
	producer eventPublisher
}

func NewKafkaSink(p eventPublisher) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (s *KafkaSink) Emit(ctx context.Context, event PostEvent) error {
	return s.producer.Publish(ctx, kafka.Event{Key: event.Word, Value: event})
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
