package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

// OutageEvent is the message value published for each newly detected outage.
type OutageEvent struct {
	County     string        `json:"county"`
	DetectedAt time.Time     `json:"detectedAt"`
	Outage     domain.Outage `json:"outage"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per new outage to a Kafka topic.
// It implements domain.Notifier.
type Publisher struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured outage topic.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// Notify publishes the batch in a single WriteMessages call. Messages are
// keyed by outage key so updates to one outage stay on one partition.
func (p *Publisher) Notify(ctx context.Context, county string, outages []domain.Outage) error {
	if len(outages) == 0 {
		return nil
	}
	detectedAt := p.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(outages))
	for i := range outages {
		msg, err := serializeToMessage(OutageEvent{County: county, DetectedAt: detectedAt, Outage: outages[i]})
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrNotification, err)
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: kafka publish: %w", domain.ErrNotification, err)
	}
	p.logger.Info("outage events published", "county", county, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an OutageEvent into a Kafka message.
func serializeToMessage(event OutageEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize outage event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Outage.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "county", Value: []byte(event.County)},
			{Key: "detected_at", Value: []byte(event.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
