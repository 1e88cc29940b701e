package ports

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// CrimeRepository persists reported crime incidents.
type CrimeRepository interface {
	Insert(ctx context.Context, rec *domain.CrimeRecord) error
	// InBounds returns records inside the box, most severe first.
	InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error)
	// NearRoute returns records within meters of the route polyline.
	NearRoute(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error)
}

// SOSRepository persists SOS alerts.
type SOSRepository interface {
	Create(ctx context.Context, alert *domain.SOSAlert) error
	GetByID(ctx context.Context, id string) (*domain.SOSAlert, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error)
	MarkNotified(ctx context.Context, id string) error
	MarkAuthoritiesContacted(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) error
}

// ContactRepository persists a user's emergency contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.EmergencyContact) error
	ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error)
	Delete(ctx context.Context, userID, id string) error
}
