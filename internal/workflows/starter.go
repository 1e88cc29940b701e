package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Starter turns SOS events into workflow executions.
type Starter struct {
	client    client.Client
	taskQueue string
	delay     time.Duration
}

// NewStarter returns a Starter that schedules on taskQueue and escalates
// after delay.
func NewStarter(c client.Client, taskQueue string, delay time.Duration) *Starter {
	return &Starter{client: c, taskQueue: taskQueue, delay: delay}
}

// StartSOS starts the workflow for alert. A workflow that already exists for
// the same alert counts as started, so redelivered events are harmless.
func (s *Starter) StartSOS(ctx context.Context, alert *domain.SOSAlert) error {
	if alert.Status != "" && alert.Status != domain.SOSActive {
		slog.Info("skip inactive sos alert", "alert_id", alert.ID, "status", alert.Status)
		return nil
	}

	opts := client.StartWorkflowOptions{
		ID:                    SOSWorkflowID(alert.ID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	input := SOSInput{AlertID: alert.ID, UserID: alert.UserID, EscalationDelay: s.delay}

	_, err := s.client.ExecuteWorkflow(ctx, opts, SOSWorkflowName, input)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	switch {
	case errors.As(err, &started):
		slog.Info("sos workflow already started", "alert_id", alert.ID)
		return nil
	case err != nil:
		return fmt.Errorf("start sos workflow %s: %w", alert.ID, err)
	}

	slog.Info("sos workflow started", "alert_id", alert.ID, "workflow_id", opts.ID)
	return nil
}
