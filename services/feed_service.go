package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ctfboard/ctfboard/models"
	"github.com/segmentio/kafka-go"
)

// FeedService publishes newly observed awards to a Kafka topic so other
// systems (notifiers, analytics) can react without polling the contest
// server themselves. Messages are keyed by team ID, so per-team ordering
// is preserved across partitions.
type FeedService struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewFeedService(brokers []string, topic string, logger *slog.Logger) *FeedService {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &FeedService{writer: writer, logger: logger}
}

// PublishAwards writes one message per award.
func (s *FeedService) PublishAwards(ctx context.Context, awards models.AwardList) error {
	if len(awards) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(awards))
	for _, a := range awards {
		value, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding award %s: %w", a, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(a.TeamID),
			Value: value,
		})
	}

	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("publishing %d awards: %w", len(messages), err)
	}
	s.logger.Info("awards published to feed", slog.Int("count", len(messages)))
	return nil
}

func (s *FeedService) Close() error {
	return s.writer.Close()
}
