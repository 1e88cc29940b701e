package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// SOSActivities holds the activity implementations for the SOS workflow.
type SOSActivities struct {
	Alerts   ports.SOSRepository
	Contacts ports.ContactRepository
	Notifier ports.NotificationService
}

// LoadContacts returns the user's emergency contacts.
func (a *SOSActivities) LoadContacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	contacts, err := a.Contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// NotifyContact sends the alert text to one contact.
func (a *SOSActivities) NotifyContact(ctx context.Context, alertID string, contact domain.EmergencyContact) error {
	alert, err := a.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return fmt.Errorf("get alert %s: %w", alertID, err)
	}
	if err := a.Notifier.NotifyContact(ctx, contact, alert.AlertText()); err != nil {
		return fmt.Errorf("notify contact %s: %w", contact.ID, err)
	}
	metrics.SOSEvents.WithLabelValues("contact_notified").Inc()
	return nil
}

// MarkNotified stamps the alert's notification time.
func (a *SOSActivities) MarkNotified(ctx context.Context, alertID string) error {
	return a.Alerts.MarkNotified(ctx, alertID)
}

// AlertStatus returns the current lifecycle state of the alert.
func (a *SOSActivities) AlertStatus(ctx context.Context, alertID string) (domain.SOSStatus, error) {
	alert, err := a.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return "", fmt.Errorf("get alert %s: %w", alertID, err)
	}
	return alert.Status, nil
}

// NotifyAuthorities escalates the alert.
func (a *SOSActivities) NotifyAuthorities(ctx context.Context, alertID string) error {
	alert, err := a.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return fmt.Errorf("get alert %s: %w", alertID, err)
	}
	if err := a.Notifier.NotifyAuthorities(ctx, alert, alert.AlertText()); err != nil {
		return fmt.Errorf("notify authorities: %w", err)
	}
	metrics.SOSEvents.WithLabelValues("escalated").Inc()
	return nil
}

// MarkAuthoritiesContacted records the escalation on the alert.
func (a *SOSActivities) MarkAuthoritiesContacted(ctx context.Context, alertID string) error {
	return a.Alerts.MarkAuthoritiesContacted(ctx, alertID)
}

// RecordFailure is the saga compensation step: it leaves an audit trail when
// the workflow stops after contacts were already told about the alert.
func (a *SOSActivities) RecordFailure(ctx context.Context, alertID, reason string) error {
	slog.ErrorContext(ctx, "sos workflow failed", "alert_id", alertID, "reason", reason)
	metrics.SOSEvents.WithLabelValues("failed").Inc()
	return nil
}
