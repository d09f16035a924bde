package kafka

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Topic and event names.
const (
	TopicAPIUsage = "yumzoom.api.usage"

	EventTypeAPIUsage = "api.usage"

	SchemaVersion = "1"
)

// EventEnvelope wraps every event published by the backend.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope serializes payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage serializes the envelope as a message on topic.
func (e *EventEnvelope) ToMessage(topic, key string) (*Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return &Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}, nil
}

// ParseEnvelope decodes a consumed message.
func ParseEnvelope(msg *Message) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to provision.
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopics returns the topics the backend writes to.
func DefaultTopics(usageTopic string) []TopicConfig {
	if usageTopic == "" {
		usageTopic = TopicAPIUsage
	}
	return []TopicConfig{
		{Name: usageTopic, Partitions: 6, ReplicationFactor: 1, RetentionMs: (7 * 24 * time.Hour).Milliseconds()},
	}
}

// TopicManager provisions topics through the cluster controller.
type TopicManager struct {
	brokers []string
	logger  logging.Logger
}

// NewTopicManager creates a TopicManager.
func NewTopicManager(brokers []string, log logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &TopicManager{brokers: brokers, logger: log}, nil
}

// EnsureTopics creates any missing topics.  Existing topics are left as is.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	var d kafka.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.brokers[0])
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka")
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to locate kafka controller")
	}
	cconn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka controller")
	}
	defer cconn.Close()

	specs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		specs = append(specs, kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.Partitions,
			ReplicationFactor: t.ReplicationFactor,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(t.RetentionMs, 10)},
			},
		})
	}
	if err := cconn.CreateTopics(specs...); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create kafka topics")
	}
	m.logger.Info("kafka topics ensured", logging.Int("count", len(specs)))
	return nil
}

//Personal.AI order the ending
