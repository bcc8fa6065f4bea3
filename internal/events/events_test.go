package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/kafka"
)

type recordingPublisher struct {
	events []kafka.Event
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, e kafka.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return nil
}

func TestKafkaSinkKeysByWord(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewKafkaSink(pub)

	ev := NewPostEvent("cycle-1", "zephyr", StatusPosted)
	require.NoError(t, sink.Emit(context.Background(), ev))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "zephyr", pub.events[0].Key)
	assert.Equal(t, ev, pub.events[0].Value)
	assert.NotEmpty(t, ev.ID)

	require.NoError(t, sink.Close())
	assert.True(t, pub.closed)
}

func TestNewSinkDisabledWithoutBrokers(t *testing.T) {
	sink := NewSink(config.KafkaConfig{Topic: "t"})
	assert.IsType(t, NopSink{}, sink)
	assert.NoError(t, sink.Emit(context.Background(), PostEvent{}))
}
