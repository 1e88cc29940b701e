package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// SOSService handles emergency alerts and the contacts they reach.
type SOSService struct {
	alerts   ports.SOSRepository
	contacts ports.ContactRepository
	events   ports.EventPublisher
	now      func() time.Time
}

// NewSOSService creates a new SOSService. events may be nil, in which case
// no notification workflow is started.
func NewSOSService(alerts ports.SOSRepository, contacts ports.ContactRepository, events ports.EventPublisher) *SOSService {
	return &SOSService{alerts: alerts, contacts: contacts, events: events, now: time.Now}
}

// Trigger records an active alert and announces it. It returns the alert and
// the contacts the notification workflow will reach.
func (s *SOSService) Trigger(ctx context.Context, userID string, loc domain.GeoPoint, message string) (*domain.SOSAlert, []domain.EmergencyContact, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSOSTrigger)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if !loc.Valid() {
		return nil, nil, fmt.Errorf("%w: location out of range", domain.ErrInvalidInput)
	}

	alert := &domain.SOSAlert{
		ID:        uuid.NewString(),
		UserID:    userID,
		Location:  loc,
		Message:   strings.TrimSpace(message),
		Status:    domain.SOSActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, nil, fmt.Errorf("create sos alert: %w", err)
	}
	metrics.SOSEvents.WithLabelValues("triggered").Inc()
	span.SetAttributes(attribute.String("sos.id", alert.ID))

	contacts, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list contacts: %w", err)
	}

	// The alert is already stored; a broker outage must not hide it from the caller.
	if s.events != nil {
		if err := s.events.PublishSOSAlert(ctx, alert); err != nil {
			slog.ErrorContext(ctx, "publish sos alert", "alert_id", alert.ID, "error", err)
		}
	}

	return alert, contacts, nil
}

// History returns a user's alerts, newest first.
func (s *SOSService) History(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.alerts.ListByUser(ctx, userID, limit)
}

// Get returns one of userID's alerts. Other users' alerts are reported as
// not found.
func (s *SOSService) Get(ctx context.Context, userID, id string) (*domain.SOSAlert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return alert, nil
}

// Resolve closes an alert owned by userID. Resolving twice is a no-op.
func (s *SOSService) Resolve(ctx context.Context, userID, id string) (*domain.SOSAlert, error) {
	alert, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == domain.SOSResolved {
		return alert, nil
	}

	if err := s.alerts.Resolve(ctx, id); err != nil {
		return nil, fmt.Errorf("resolve sos alert: %w", err)
	}
	now := s.now().UTC()
	alert.Status = domain.SOSResolved
	alert.ResolvedAt = &now
	metrics.SOSEvents.WithLabelValues("resolved").Inc()

	return alert, nil
}

// AddContact stores a new emergency contact for the user.
func (s *SOSService) AddContact(ctx context.Context, userID string, c *domain.EmergencyContact) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.ID = uuid.NewString()
	c.UserID = userID
	c.CreatedAt = s.now().UTC()
	if c.Relationship == "" {
		c.Relationship = "other"
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// ListContacts returns the user's emergency contacts.
func (s *SOSService) ListContacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.contacts.ListByUser(ctx, userID)
}

// DeleteContact removes one of the user's contacts.
func (s *SOSService) DeleteContact(ctx context.Context, userID, id string) error {
	return s.contacts.Delete(ctx, userID, id)
}
