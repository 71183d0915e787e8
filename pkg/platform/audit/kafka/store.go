// Package kafka publishes audit events to a Kafka topic. Kafka is the
// durable sink for compliance events; in-process consumers only see the
// memory store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "vigil/pkg/platform/audit"
)

// Store implements audit.Store by producing one JSON record per event.
type Store struct {
	client *kgo.Client
	topic  string
}

// payload is the wire form of an audit event. Field names are part of the
// downstream consumer contract.
type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Subject   string `json:"subject"`
	RequestID string `json:"request_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Score     int    `json:"score,omitempty"`
}

// New connects to the brokers and ensures the topic exists. An existing
// topic is not an error.
func New(ctx context.Context, brokers []string, topic string) (*Store, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit store: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka audit store: topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka audit store: connect: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka audit store: ensure topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("kafka audit store: ensure topic %s: %w", topic, resp.Err)
	}

	return &Store{client: client, topic: topic}, nil
}

// Append produces the event synchronously. Callers that must not block wrap
// this store in the async publisher.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		ID:        event.ID,
		Category:  string(event.Category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Subject:   event.Subject,
		RequestID: event.RequestID,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Score:     event.Score,
	})
	if err != nil {
		return fmt.Errorf("kafka audit store: marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka audit store: produce: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
