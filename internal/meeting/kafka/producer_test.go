package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() ProducerConfig {
	return ProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "meeting-events",
		Logger:  zerolog.Nop(),
	}
}

func TestNewProducer_Defaults(t *testing.T) {
	producer, err := NewProducer(baseConfig())
	require.NoError(t, err)

	assert.Equal(t, "meeting-events", producer.config.Topic)
	assert.Equal(t, 3, producer.config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, producer.config.RetryBackoff)
	assert.Equal(t, 10*time.Second, producer.config.WriteTimeout)
	assert.Equal(t, 100, producer.config.BatchSize)

	w, ok := producer.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.False(t, w.Async)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
}

func TestNewProducer_KeepsExplicitSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxRetries = 5
	cfg.RetryBackoff = 200 * time.Millisecond
	cfg.WriteTimeout = 5 * time.Second
	cfg.BatchSize = 50

	producer, err := NewProducer(cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, producer.config.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, producer.config.RetryBackoff)
	assert.Equal(t, 5*time.Second, producer.config.WriteTimeout)
	assert.Equal(t, 50, producer.config.BatchSize)
}

func TestNewProducer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProducerConfig)
		wantErr string
	}{
		{"empty brokers", func(c *ProducerConfig) { c.Brokers = nil }, "brokers list is empty"},
		{"empty topic", func(c *ProducerConfig) { c.Topic = "" }, "topic is empty"},
		{"negative max retries", func(c *ProducerConfig) { c.MaxRetries = -1 }, "max_retries cannot be negative"},
		{"negative retry backoff", func(c *ProducerConfig) { c.RetryBackoff = -time.Second }, "retry_backoff cannot be negative"},
		{"negative write timeout", func(c *ProducerConfig) { c.WriteTimeout = -time.Second }, "write_timeout cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)

			producer, err := NewProducer(cfg)
			require.ErrorContains(t, err, tt.wantErr)
			assert.Nil(t, producer)
		})
	}
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		err       error
		retriable bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{errors.New("connection refused"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("leader not available"), true},
		{errors.New("invalid message format"), false},
		{errors.New("message too large"), false},
		{errors.New("authorization failed"), false},
		{errors.New("broker hiccup"), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retriable, isRetriableError(tt.err), "%v", tt.err)
	}
}

func TestProducer_GetMetrics(t *testing.T) {
	producer, err := NewProducer(baseConfig())
	require.NoError(t, err)

	assert.Equal(t, Metrics{}, producer.GetMetrics())

	producer.metrics.PublishDuration.Add(int64(100 * time.Millisecond))
	assert.Equal(t, time.Duration(0), producer.GetMetrics().AvgPublishTime)

	producer.metrics.MessagesPublished.Add(10)
	producer.metrics.MessagesFailed.Add(2)
	producer.metrics.RetriesTotal.Add(5)

	metrics := producer.GetMetrics()
	assert.Equal(t, int64(10), metrics.MessagesPublished)
	assert.Equal(t, int64(2), metrics.MessagesFailed)
	assert.Equal(t, int64(5), metrics.RetriesTotal)
	assert.Equal(t, 10*time.Millisecond, metrics.AvgPublishTime)
}

func TestProducer_Closed(t *testing.T) {
	producer, err := NewProducer(baseConfig())
	require.NoError(t, err)

	_ = producer.Close()
	assert.True(t, producer.closed.Load())
	require.ErrorContains(t, producer.Close(), "already closed")

	ctx := context.Background()
	require.ErrorContains(t, producer.Publish(ctx, "meeting-1", []byte("{}")), "producer is closed")
	require.ErrorContains(t, producer.PublishBatch(ctx, []Message{{Key: "a"}, {Key: "b"}}), "producer is closed")
	require.ErrorContains(t, producer.HealthCheck(ctx), "producer is closed")
}

func TestProducer_PublishBatch_EmptyMessages(t *testing.T) {
	producer, err := NewProducer(baseConfig())
	require.NoError(t, err)

	assert.NoError(t, producer.PublishBatch(context.Background(), nil))
}

type fakeWriter struct {
	errs    []error
	calls   int
	written []kafkago.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestProducer(t *testing.T, w *fakeWriter) *Producer {
	t.Helper()
	producer, err := NewProducer(ProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "meeting-events",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	producer.writer = w
	producer.sleep = func(context.Context, time.Duration) error { return nil }
	return producer
}

func TestProducer_PublishRetriesTransientErrors(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("connection reset by peer"), errors.New("i/o timeout")}}
	producer := newTestProducer(t, w)

	err := producer.Publish(context.Background(), "meeting-1", []byte(`{"to":"RAW"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, w.calls)
	require.Len(t, w.written, 1)
	assert.Equal(t, []byte("meeting-1"), w.written[0].Key)

	metrics := producer.GetMetrics()
	assert.Equal(t, int64(1), metrics.MessagesPublished)
	assert.Equal(t, int64(2), metrics.RetriesTotal)
	assert.Equal(t, int64(0), metrics.MessagesFailed)
}

func TestProducer_PublishStopsOnPermanentError(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("message too large")}}
	producer := newTestProducer(t, w)

	err := producer.Publish(context.Background(), "meeting-1", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, int64(1), producer.GetMetrics().MessagesFailed)
}

func TestProducer_PublishGivesUpAfterMaxRetries(t *testing.T) {
	refused := errors.New("connection refused")
	w := &fakeWriter{errs: []error{refused, refused, refused, refused, refused}}
	producer := newTestProducer(t, w)

	err := producer.PublishBatch(context.Background(), []Message{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}})
	require.ErrorIs(t, err, refused)
	assert.Equal(t, 4, w.calls)
	assert.Equal(t, int64(2), producer.GetMetrics().MessagesFailed)
	assert.Equal(t, int64(3), producer.GetMetrics().RetriesTotal)
}
