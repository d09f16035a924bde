package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

var (
	ErrConsumerClosed  = errors.New(errors.ErrCodeInternal, "consumer closed")
	ErrNoHandler       = errors.New(errors.ErrCodeValidation, "no handler registered")
	ErrAlreadyStarted  = errors.New(errors.ErrCodeConflict, "consumer already started")
	ErrTopicSubscribed = errors.New(errors.ErrCodeConflict, "topic already subscribed")
)

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Default retry settings.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 200 * time.Millisecond
)

// Consumer reads messages from one reader and dispatches them by topic.
// Handlers that keep failing after MaxRetries are logged and the message
// is committed so that one poison event cannot stall the group.
type Consumer struct {
	reader       ReaderInterface
	handlers     map[string]Handler
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
	maxRetries   int
	retryBackoff time.Duration

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewConsumer creates a group consumer for topics.
func NewConsumer(cfg config.KafkaConfig, topics []string, log logging.Logger, metrics *prometheus.AppMetrics) (*Consumer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka consumer group required")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
		StartOffset:    kafka.LastOffset,
	})
	return NewConsumerWithReader(reader, log, metrics), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r ReaderInterface, log logging.Logger, metrics *prometheus.AppMetrics) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &Consumer{
		reader:       r,
		handlers:     make(map[string]Handler),
		logger:       log.Named("kafka_consumer"),
		metrics:      metrics,
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
	}
}

// SetRetry overrides the retry policy.  Must be called before Start.
func (c *Consumer) SetRetry(maxRetries int, backoff time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxRetries >= 0 {
		c.maxRetries = maxRetries
	}
	if backoff >= 0 {
		c.retryBackoff = backoff
	}
}

// Subscribe registers handler for topic.
func (c *Consumer) Subscribe(topic string, handler Handler) error {
	if topic == "" || handler == nil {
		return errors.New(errors.ErrCodeValidation, "topic and handler required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConsumerClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	if _, ok := c.handlers[topic]; ok {
		return ErrTopicSubscribed
	}
	c.handlers[topic] = handler
	return nil
}

// Start launches the consume loop.  It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConsumerClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	if len(c.handlers) == 0 {
		return ErrNoHandler
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("kafka consumer started", logging.Int("topics", len(c.handlers)))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("fetch failed", logging.Err(err))
			if !sleepCtx(ctx, c.retryBackoff) {
				return
			}
			continue
		}
		msg := fromKafkaMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[msg.Topic]
		c.mu.RUnlock()
		if !ok {
			c.logger.Warn("no handler for topic", logging.String("topic", msg.Topic))
		} else {
			err := c.handleWithRetry(ctx, handler, msg)
			prometheus.RecordEventConsumed(c.metrics, msg.Topic, err)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("dropping message after retries",
					logging.String("topic", msg.Topic),
					logging.Int64("offset", msg.Offset),
					logging.Err(err))
			}
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit failed", logging.String("topic", msg.Topic), logging.Err(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, h Handler, msg *Message) error {
	var err error
	backoff := c.retryBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err = h(ctx, msg); err == nil {
			return nil
		}
		if attempt == c.maxRetries {
			break
		}
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed")
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Timestamp: m.Time,
		Partition: m.Partition,
		Offset:    m.Offset,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

//Personal.AI order the ending
