package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// ProducerConfig has no async mode: Publish returns only after the brokers
// acknowledged the write, which the outbox relies on before marking rows.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	BatchSize    int
	Logger       zerolog.Logger
}

// Message is a keyed record. Messages with the same key land on the same
// partition, so events of one meeting keep their order.
type Message struct {
	Key   string
	Value []byte
}

type Metrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

type producerMetrics struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Producer struct {
	config  ProducerConfig
	writer  messageWriter
	logger  zerolog.Logger
	metrics producerMetrics
	closed  atomic.Bool
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	setDefaults(&cfg)

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchSize:    cfg.BatchSize,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafkago.RequireAll,
		// retries are driven by Publish
		MaxAttempts: 1,
	}

	return &Producer{
		config: cfg,
		writer: w,
		logger: cfg.Logger.With().Str("component", "kafka_producer").Str("topic", cfg.Topic).Logger(),
		sleep:  sleepCtx,
	}, nil
}

func validateConfig(cfg *ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("brokers list is empty")
	}
	if cfg.Topic == "" {
		return errors.New("topic is empty")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}
	if cfg.RetryBackoff < 0 {
		return errors.New("retry_backoff cannot be negative")
	}
	if cfg.WriteTimeout < 0 {
		return errors.New("write_timeout cannot be negative")
	}
	if cfg.BatchSize < 0 {
		return errors.New("batch_size cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.PublishBatch(ctx, []Message{{Key: key, Value: value}})
}

// PublishBatch writes all messages in one call, retrying transient failures
// with linear backoff.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return errors.New("kafka publish: producer is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		msgs[i] = kafkago.Message{Key: []byte(m.Key), Value: m.Value}
	}

	start := time.Now()
	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			if serr := p.sleep(ctx, time.Duration(attempt)*p.config.RetryBackoff); serr != nil {
				err = serr
				break
			}
		}

		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			p.metrics.MessagesPublished.Add(int64(len(msgs)))
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}
		if !isRetriableError(err) {
			break
		}
		p.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("kafka write failed, retrying")
	}

	p.metrics.MessagesFailed.Add(int64(len(msgs)))
	return fmt.Errorf("kafka publish: %w", err)
}

func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return errors.New("kafka health: producer is closed")
	}

	conn, err := kafkago.DialContext(ctx, "tcp", p.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health: dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(p.config.Topic); err != nil {
		return fmt.Errorf("kafka health: read partitions: %w", err)
	}
	return nil
}

func (p *Producer) GetMetrics() Metrics {
	m := Metrics{
		MessagesPublished: p.metrics.MessagesPublished.Load(),
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if m.MessagesPublished > 0 {
		m.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / m.MessagesPublished)
	}
	return m
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errors.New("kafka producer already closed")
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka close: %w", err)
	}
	p.logger.Info().
		Int64("published", p.metrics.MessagesPublished.Load()).
		Int64("failed", p.metrics.MessagesFailed.Load()).
		Msg("kafka producer closed")
	return nil
}

func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}

	msg := strings.ToLower(err.Error())
	for _, permanent := range []string{"invalid", "too large", "authorization", "authentication"} {
		if strings.Contains(msg, permanent) {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
