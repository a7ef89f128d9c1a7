package ports

import (
	"context"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishWarning(ctx context.Context, warning *domain.Warning) error
	PublishAdvisoryUpdated(ctx context.Context, advisory *domain.Advisory) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeWarnings(ctx context.Context, handler func(ctx context.Context, warning *domain.Warning) error) error
	SubscribeAdvisoryUpdates(ctx context.Context, handler func(ctx context.Context, advisory *domain.Advisory) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService delivers warnings to route operators.
type NotificationService interface {
	SendWarning(ctx context.Context, contact string, warning *domain.Warning) error
}
