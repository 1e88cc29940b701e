package ports

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// RoutingProvider returns candidate paths between two points, best first.
type RoutingProvider interface {
	Routes(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSOSAlert(ctx context.Context, alert *domain.SOSAlert) error
	PublishRouteScored(ctx context.Context, plan *domain.RoutePlan) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSOSAlerts(ctx context.Context, handler func(ctx context.Context, alert *domain.SOSAlert) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService delivers SOS messages to people.
type NotificationService interface {
	NotifyContact(ctx context.Context, contact domain.EmergencyContact, message string) error
	NotifyAuthorities(ctx context.Context, alert *domain.SOSAlert, message string) error
}
