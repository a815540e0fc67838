package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cineops/showtime-api/pkg/config"
	"github.com/cineops/showtime-api/pkg/jobs"
)

// Notifier is the change-notification sink consumed by mutating services.
// Implementations are fire-and-forget: a delivery failure must never abort
// the business operation that triggered it.
type Notifier interface {
	Notify(entityType, operation, entityID string, data map[string]interface{})
}

// NotificationService fans change events out to a Redis channel through an
// in-memory worker queue. Every failure path logs and swallows.
type NotificationService struct {
	queue   *jobs.Queue
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewNotificationService wires the queue and its Redis publisher. A nil
// client leaves events logged but unpublished (useful in tests and
// single-box development).
func NewNotificationService(client *redis.Client, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "showtime:changes"
	}

	s := &NotificationService{client: client, channel: channel, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues one change event. Errors are logged, never returned.
func (s *NotificationService) Notify(entityType, operation, entityID string, data map[string]interface{}) {
	event := jobs.Event{
		ID:         uuid.NewString(),
		EntityType: entityType,
		Operation:  operation,
		EntityID:   entityID,
		Data:       data,
	}
	if err := s.queue.Enqueue(event); err != nil {
		s.logger.Sugar().Warnw("dropping change notification", "entity", entityType, "operation", operation, "entity_id", entityID, "error", err)
	}
}

func (s *NotificationService) publish(ctx context.Context, event jobs.Event) error {
	if s.client == nil {
		s.logger.Sugar().Debugw("notification sink disabled", "entity", event.EntityType, "operation", event.Operation, "entity_id", event.EntityID)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"entity_type": event.EntityType,
		"operation":   event.Operation,
		"entity_id":   event.EntityID,
		"data":        event.Data,
		"emitted_at":  event.Enqueued.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
