package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")
)

// DefaultMaxMessageBytes caps a single message value.
const DefaultMaxMessageBytes = 1 << 20

// Message is a transport-neutral Kafka record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
	Offset    int64
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg *Message) error

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes messages.  The underlying writer runs asynchronously
// so that request handlers never wait on the broker; delivery failures are
// logged and counted from the completion callback.
type Producer struct {
	writer          WriterInterface
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	maxMessageBytes int
	closed          atomic.Bool
}

// NewProducer creates a Producer for cfg.Brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger, metrics *prometheus.AppMetrics) (*Producer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	log = log.Named("kafka_producer")

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 50 * time.Millisecond
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			for _, m := range msgs {
				prometheus.RecordEventPublished(metrics, m.Topic, err)
			}
			if err != nil {
				log.Error("async publish failed", logging.Int("messages", len(msgs)), logging.Err(err))
			}
		},
	}

	log.Info("kafka producer created", logging.Any("brokers", cfg.Brokers))
	return &Producer{
		writer:          writer,
		logger:          log,
		metrics:         metrics,
		maxMessageBytes: DefaultMaxMessageBytes,
	}, nil
}

// NewProducerWithWriter wraps an existing writer.  Publish results are
// counted directly since no completion callback is involved.
func NewProducerWithWriter(w WriterInterface, log logging.Logger, metrics *prometheus.AppMetrics) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &Producer{writer: w, logger: log, metrics: metrics, maxMessageBytes: DefaultMaxMessageBytes}
}

// Publish writes one message.
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg == nil || msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "value required")
	}
	if len(msg.Value) > p.maxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}

	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		prometheus.RecordEventPublished(p.metrics, msg.Topic, err)
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	if _, async := p.writer.(*kafka.Writer); !async {
		prometheus.RecordEventPublished(p.metrics, msg.Topic, nil)
	}
	p.logger.Debug("message published", logging.String("topic", msg.Topic))
	return nil
}

// PublishEvent serializes env and publishes it keyed by key.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, env *EventEnvelope) error {
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed")
	return err
}

func toKafkaMessage(msg *Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

// ValidateConfig checks the settings shared by producer and consumer.
func ValidateConfig(cfg config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.ProducerRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "kafka producer retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
