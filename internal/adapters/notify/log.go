// Package notify delivers SOS messages. LogNotifier writes them to the
// structured log in place of an SMS or e-mail gateway.
package notify

import (
	"context"
	"log/slog"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.NotificationService = (*LogNotifier)(nil)

// LogNotifier implements ports.NotificationService by logging each message.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier writing to l, or the default logger.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{log: l.With("component", "notifier")}
}

// NotifyContact logs one SMS and, when an address is known, one e-mail.
func (n *LogNotifier) NotifyContact(ctx context.Context, c domain.EmergencyContact, message string) error {
	if c.Phone != "" {
		n.log.WarnContext(ctx, "SMS alert", "contact_id", c.ID, "to", c.Phone, "body", message)
	}
	if c.Email != "" {
		n.log.WarnContext(ctx, "email alert", "contact_id", c.ID, "to", c.Email,
			"subject", "EMERGENCY: SOS Alert from SafeRoute", "body", message)
	}
	return nil
}

// NotifyAuthorities logs the escalation with the alert location.
func (n *LogNotifier) NotifyAuthorities(ctx context.Context, a *domain.SOSAlert, message string) error {
	n.log.ErrorContext(ctx, "authorities alerted",
		"alert_id", a.ID,
		"lat", a.Location.Lat,
		"lon", a.Location.Lon,
		"map_link", a.MapLink(),
		"body", message,
	)
	return nil
}
