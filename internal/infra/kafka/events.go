package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types, also used as topic suffixes.
const (
	EventUserBanned       = "user.banned"
	EventUserUnbanned     = "user.unbanned"
	EventUserDeleted      = "user.deleted"
	EventAccountLockedOut = "auth.locked_out"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Subject   string            `json:"subject,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subject string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		Subject:   subject,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(body),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func userSubject(id int64) string {
	return strconv.FormatInt(id, 10)
}

// PublishUserBanned publishes user.banned events.
func (p *EventPublisher) PublishUserBanned(ctx context.Context, event domain.UserBannedEvent) error {
	payload := struct {
		UserID          int64      `json:"user_id"`
		BannedBy        int64      `json:"banned_by"`
		Kind            string     `json:"kind"`
		Until           *time.Time `json:"until,omitempty"`
		Reason          string     `json:"reason,omitempty"`
		BannedAt        time.Time  `json:"banned_at"`
		SessionsRevoked int        `json:"sessions_revoked"`
	}{
		UserID:          event.UserID,
		BannedBy:        event.BannedBy,
		Kind:            string(event.Kind),
		Until:           event.Until,
		Reason:          event.Reason,
		BannedAt:        event.BannedAt.UTC(),
		SessionsRevoked: event.SessionsRevoked,
	}

	return p.publish(ctx, event.EventID, EventUserBanned, userSubject(event.UserID), event.BannedAt, payload)
}

// PublishUserUnbanned publishes user.unbanned events.
func (p *EventPublisher) PublishUserUnbanned(ctx context.Context, event domain.UserUnbannedEvent) error {
	payload := struct {
		UserID     int64     `json:"user_id"`
		UnbannedBy int64     `json:"unbanned_by"`
		UnbannedAt time.Time `json:"unbanned_at"`
	}{
		UserID:     event.UserID,
		UnbannedBy: event.UnbannedBy,
		UnbannedAt: event.UnbannedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventUserUnbanned, userSubject(event.UserID), event.UnbannedAt, payload)
}

// PublishUserDeleted publishes user.deleted events.
func (p *EventPublisher) PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error {
	payload := struct {
		UserID    int64     `json:"user_id"`
		DeletedBy int64     `json:"deleted_by"`
		SelfServe bool      `json:"self_serve"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		UserID:    event.UserID,
		DeletedBy: event.DeletedBy,
		SelfServe: event.SelfServe,
		DeletedAt: event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventUserDeleted, userSubject(event.UserID), event.DeletedAt, payload)
}

// PublishAccountLockedOut publishes auth.locked_out events.
func (p *EventPublisher) PublishAccountLockedOut(ctx context.Context, event domain.AccountLockedOutEvent) error {
	payload := struct {
		Identifier string    `json:"identifier"`
		ClientIP   string    `json:"client_ip,omitempty"`
		LockedAt   time.Time `json:"locked_at"`
		Until      time.Time `json:"until"`
	}{
		Identifier: event.Identifier,
		ClientIP:   event.ClientIP,
		LockedAt:   event.LockedAt.UTC(),
		Until:      event.Until.UTC(),
	}

	return p.publish(ctx, event.EventID, EventAccountLockedOut, event.Identifier, event.LockedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
