package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// SOSWorkflowName is the registered workflow type.
const SOSWorkflowName = "SOSWorkflow"

// Activity names, registered from SOSActivities' methods.
const (
	ActLoadContacts             = "LoadContacts"
	ActNotifyContact            = "NotifyContact"
	ActMarkNotified             = "MarkNotified"
	ActAlertStatus              = "AlertStatus"
	ActNotifyAuthorities        = "NotifyAuthorities"
	ActMarkAuthoritiesContacted = "MarkAuthoritiesContacted"
	ActRecordFailure            = "RecordFailure"
)

// SOSInput is the input for the SOS workflow.
type SOSInput struct {
	AlertID         string
	UserID          string
	EscalationDelay time.Duration
}

// SOSResult summarises what the workflow did.
type SOSResult struct {
	ContactsNotified int
	ContactsFailed   int
	Escalated        bool
}

// SOSWorkflowID keeps one workflow per alert so redelivered events do not
// notify contacts twice.
func SOSWorkflowID(alertID string) string {
	return "sos-" + alertID
}

// SOSWorkflow notifies the user's emergency contacts, then escalates to the
// authorities if the alert is still active after the escalation delay. When
// nobody could be reached it escalates immediately. A failure after contacts
// were notified is recorded against the alert (saga compensation).
func SOSWorkflow(ctx workflow.Context, input SOSInput) (SOSResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting SOS workflow", "alertID", input.AlertID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})

	var result SOSResult

	// Step 1: load contacts
	var contacts []domain.EmergencyContact
	if err := workflow.ExecuteActivity(ctx, ActLoadContacts, input.UserID).Get(ctx, &contacts); err != nil {
		return result, err
	}

	// Step 2: notify every contact in parallel
	futures := make([]workflow.Future, len(contacts))
	for i, c := range contacts {
		futures[i] = workflow.ExecuteActivity(ctx, ActNotifyContact, input.AlertID, c)
	}
	for i, f := range futures {
		if err := f.Get(ctx, nil); err != nil {
			logger.Warn("contact notification failed", "contactID", contacts[i].ID, "error", err)
			result.ContactsFailed++
			continue
		}
		result.ContactsNotified++
	}

	fail := func(err error) (SOSResult, error) {
		if result.ContactsNotified > 0 {
			logger.Warn("SOS workflow failed after notifying contacts, recording failure", "error", err)
			_ = workflow.ExecuteActivity(ctx, ActRecordFailure, input.AlertID, err.Error()).Get(ctx, nil)
		}
		return result, err
	}

	if result.ContactsNotified > 0 {
		if err := workflow.ExecuteActivity(ctx, ActMarkNotified, input.AlertID).Get(ctx, nil); err != nil {
			return fail(err)
		}

		// Step 3: give contacts time to respond
		if input.EscalationDelay > 0 {
			if err := workflow.Sleep(ctx, input.EscalationDelay); err != nil {
				return fail(err)
			}
		}
	}

	var status domain.SOSStatus
	if err := workflow.ExecuteActivity(ctx, ActAlertStatus, input.AlertID).Get(ctx, &status); err != nil {
		return fail(err)
	}
	if status != domain.SOSActive {
		logger.Info("SOS resolved before escalation", "alertID", input.AlertID)
		return result, nil
	}

	// Step 4: escalate
	if err := workflow.ExecuteActivity(ctx, ActNotifyAuthorities, input.AlertID).Get(ctx, nil); err != nil {
		return fail(err)
	}
	if err := workflow.ExecuteActivity(ctx, ActMarkAuthoritiesContacted, input.AlertID).Get(ctx, nil); err != nil {
		return fail(err)
	}
	result.Escalated = true

	if len(contacts) > 0 && result.ContactsNotified == 0 {
		logger.Error("no emergency contact could be reached", "alertID", input.AlertID)
		return result, errors.New("all contact notifications failed")
	}

	logger.Info("SOS workflow finished", "alertID", input.AlertID, "escalated", result.Escalated)
	return result, nil
}
