package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ActivityEvent is the message published for every logged activity
type ActivityEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SourceUserID *string   `json:"source_user_id,omitempty"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
}

// Publisher streams activity events to subscribers outside the service
type Publisher interface {
	Publish(ctx context.Context, event ActivityEvent)
	Close() error
}

// PubSubPublisher publishes activity events to a Google Cloud Pub/Sub topic
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSubPublisher connects to Pub/Sub and verifies the topic exists.
func NewPubSubPublisher(ctx context.Context, projectID, topicName, credentialsFile string, logger *zap.Logger) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	p, err := NewPubSubPublisherWithClient(ctx, client, topicName, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

// NewPubSubPublisherWithClient uses an existing client.
func NewPubSubPublisherWithClient(ctx context.Context, client *pubsub.Client, topicName string, logger *zap.Logger) (*PubSubPublisher, error) {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicName, err)
	}
	if !exists {
		return nil, fmt.Errorf("topic %s does not exist", topicName)
	}

	return &PubSubPublisher{
		client: client,
		topic:  topic,
		logger: logger.Named("pubsub"),
	}, nil
}

// Publish sends the event without waiting for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, event ActivityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode activity event", zap.Error(err))
		return
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"user_id": event.UserID,
		},
	})

	go func() {
		getCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := result.Get(getCtx); err != nil {
			p.logger.Warn("activity publish failed", zap.String("activity_id", event.ID), zap.Error(err))
		}
	}()
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, ActivityEvent) {}

func (noopPublisher) Close() error { return nil }
