package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hope-foundation/apiserver/config"
)

// Channels carrying domain events.
const (
	TopicSubscriberCreated = "subscriber.created"
	TopicContactSubmitted  = "contact.submitted"
	TopicDonationRecorded  = "donation.recorded"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects to the broker selected by cfg.Backend. An empty backend
// yields an MQ that drops every message.
func Open(ctx context.Context, cfg config.QueueConfig) (*MQ, error) {
	switch cfg.Backend {
	case "":
		return New(Discard{}), nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// PublishJSON encodes v and publishes it with a content-type attribute.
func (m *MQ) PublishJSON(ctx context.Context, channel string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", channel, err)
	}
	return m.backend.Publish(ctx, channel, data, map[string]string{"content-type": "application/json"})
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

// Discard is a Backend for deployments without a broker.
type Discard struct{}

func (Discard) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

// Subscribe blocks until ctx is cancelled; nothing is ever delivered.
func (Discard) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Discard) Close() error { return nil }
