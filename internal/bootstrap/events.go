package bootstrap

import (
	"context"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/infrastructure/messaging/kafka"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
)

// eventSource identifies this backend in published envelopes.
const eventSource = "yumzoom-apiserver"

type envelopePublisher interface {
	PublishEvent(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// UsagePublisher sends rate limiter usage events to Kafka.
type UsagePublisher struct {
	producer envelopePublisher
	topic    string
}

// NewUsagePublisher creates a UsagePublisher for topic.  An empty topic
// falls back to kafka.TopicAPIUsage.
func NewUsagePublisher(producer envelopePublisher, topic string) *UsagePublisher {
	if topic == "" {
		topic = kafka.TopicAPIUsage
	}
	return &UsagePublisher{producer: producer, topic: topic}
}

// PublishUsage implements ratelimit.EventPublisher.  Events are keyed by
// application so that one application's events stay ordered.
func (p *UsagePublisher) PublishUsage(ctx context.Context, ev *ratelimit.UsageEvent) error {
	env, err := kafka.NewEventEnvelope(kafka.EventTypeAPIUsage, eventSource, ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		env.EventID = ev.EventID
	}
	key := ev.ApplicationID
	if key == "" {
		key = ev.KeyPrefix
	}
	return p.producer.PublishEvent(ctx, p.topic, key, env)
}

// UsageSink returns where the rate limiter sends usage events: the Kafka
// usage topic when Kafka is enabled, otherwise the ledger table directly.
// The producer, if any, is closed with the Infra.
func (i *Infra) UsageSink() (ratelimit.EventPublisher, error) {
	if !i.Config.Kafka.Enabled {
		return i.UsageLedger(), nil
	}
	producer, err := kafka.NewProducer(i.Config.Kafka, i.Logger, i.Metrics)
	if err != nil {
		return nil, err
	}
	i.OnClose(func() { _ = producer.Close() })
	return NewUsagePublisher(producer, i.Config.Kafka.UsageTopic), nil
}

// UsageEventHandler returns the consumer handler that folds usage events
// into the ledger.  Malformed messages and foreign event types are logged
// and skipped since retrying them cannot succeed.
func UsageEventHandler(ledger *ratelimit.UsageLedger, logger logging.Logger) kafka.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(ctx context.Context, msg *kafka.Message) error {
		env, err := kafka.ParseEnvelope(msg)
		if err != nil {
			logger.Warn("skipping malformed usage message",
				logging.String("topic", msg.Topic), logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		if env.EventType != kafka.EventTypeAPIUsage {
			logger.Debug("skipping event", logging.String("event_type", env.EventType))
			return nil
		}
		var ev ratelimit.UsageEvent
		if err := env.DecodePayload(&ev); err != nil {
			logger.Warn("skipping undecodable usage event",
				logging.String("event_id", env.EventID), logging.Err(err))
			return nil
		}
		return ledger.Handle(ctx, &ev)
	}
}

//Personal.AI order the ending
