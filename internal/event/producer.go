package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/beemstream/profile-service/internal/domain"
	"github.com/beemstream/profile-service/internal/kafka"
)

// Kafka topic constants for profile domain events.
const (
	TopicUserRegistered = "profile.user.registered"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceProfileService = "profile-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Producer publishes profile domain events to Kafka.
type Producer struct {
	kafka  *kafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *kafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	id := strconv.FormatInt(user.ID, 10)
	data := UserRegisteredData{
		ID:       id,
		Username: user.Username,
		Email:    user.Email,
	}

	event, err := kafka.NewEvent(TopicUserRegistered, id, AggregateTypeUser, SourceProfileService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", id),
		slog.String("username", user.Username),
	)

	return nil
}
