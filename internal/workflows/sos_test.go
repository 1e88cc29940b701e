package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

type SOSWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env *testsuite.TestWorkflowEnvironment
}

func TestSOSWorkflow(t *testing.T) {
	suite.Run(t, new(SOSWorkflowSuite))
}

func (s *SOSWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflowWithOptions(SOSWorkflow, workflowOptions())
	s.env.RegisterActivity(&SOSActivities{})
}

func (s *SOSWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

var (
	ane   = domain.EmergencyContact{ID: "k1", Name: "Ane", Phone: "+34600000000"}
	mikel = domain.EmergencyContact{ID: "k2", Name: "Mikel", Email: "mikel@example.com"}
	input = SOSInput{AlertID: "a1", UserID: "u1", EscalationDelay: 5 * time.Minute}
)

func (s *SOSWorkflowSuite) result() SOSResult {
	var r SOSResult
	s.NoError(s.env.GetWorkflowResult(&r))
	return r
}

func (s *SOSWorkflowSuite) TestEscalatesWhenStillActive() {
	s.env.OnActivity(ActLoadContacts, mock.Anything, "u1").Return([]domain.EmergencyContact{ane, mikel}, nil).Once()
	s.env.OnActivity(ActNotifyContact, mock.Anything, "a1", ane).Return(nil).Once()
	s.env.OnActivity(ActNotifyContact, mock.Anything, "a1", mikel).Return(nil).Once()
	s.env.OnActivity(ActMarkNotified, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActAlertStatus, mock.Anything, "a1").Return(domain.SOSActive, nil).Once()
	s.env.OnActivity(ActNotifyAuthorities, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActMarkAuthoritiesContacted, mock.Anything, "a1").Return(nil).Once()

	start := s.env.Now()
	s.env.ExecuteWorkflow(SOSWorkflowName, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(SOSResult{ContactsNotified: 2, Escalated: true}, s.result())
	s.GreaterOrEqual(s.env.Now().Sub(start), input.EscalationDelay)
}

func (s *SOSWorkflowSuite) TestResolvedBeforeEscalation() {
	s.env.OnActivity(ActLoadContacts, mock.Anything, "u1").Return([]domain.EmergencyContact{ane}, nil).Once()
	s.env.OnActivity(ActNotifyContact, mock.Anything, "a1", ane).Return(nil).Once()
	s.env.OnActivity(ActMarkNotified, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActAlertStatus, mock.Anything, "a1").Return(domain.SOSResolved, nil).Once()

	s.env.ExecuteWorkflow(SOSWorkflowName, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(SOSResult{ContactsNotified: 1}, s.result())
}

func (s *SOSWorkflowSuite) TestNoContactsEscalatesImmediately() {
	s.env.OnActivity(ActLoadContacts, mock.Anything, "u1").Return([]domain.EmergencyContact{}, nil).Once()
	s.env.OnActivity(ActAlertStatus, mock.Anything, "a1").Return(domain.SOSActive, nil).Once()
	s.env.OnActivity(ActNotifyAuthorities, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActMarkAuthoritiesContacted, mock.Anything, "a1").Return(nil).Once()

	start := s.env.Now()
	s.env.ExecuteWorkflow(SOSWorkflowName, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(SOSResult{Escalated: true}, s.result())
	s.Less(s.env.Now().Sub(start), input.EscalationDelay)
}

func (s *SOSWorkflowSuite) TestAllContactsFailStillEscalates() {
	s.env.OnActivity(ActLoadContacts, mock.Anything, "u1").Return([]domain.EmergencyContact{ane}, nil).Once()
	s.env.OnActivity(ActNotifyContact, mock.Anything, "a1", ane).Return(errors.New("sms gateway down"))
	s.env.OnActivity(ActAlertStatus, mock.Anything, "a1").Return(domain.SOSActive, nil).Once()
	s.env.OnActivity(ActNotifyAuthorities, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActMarkAuthoritiesContacted, mock.Anything, "a1").Return(nil).Once()

	s.env.ExecuteWorkflow(SOSWorkflowName, input)

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *SOSWorkflowSuite) TestFailureAfterNotifyIsRecorded() {
	s.env.OnActivity(ActLoadContacts, mock.Anything, "u1").Return([]domain.EmergencyContact{ane}, nil).Once()
	s.env.OnActivity(ActNotifyContact, mock.Anything, "a1", ane).Return(nil).Once()
	s.env.OnActivity(ActMarkNotified, mock.Anything, "a1").Return(nil).Once()
	s.env.OnActivity(ActAlertStatus, mock.Anything, "a1").Return(domain.SOSActive, nil).Once()
	s.env.OnActivity(ActNotifyAuthorities, mock.Anything, "a1").Return(errors.New("dispatch unreachable"))
	s.env.OnActivity(ActRecordFailure, mock.Anything, "a1", mock.Anything).Return(nil).Once()

	s.env.ExecuteWorkflow(SOSWorkflowName, input)

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func TestSOSWorkflowID(t *testing.T) {
	if got := SOSWorkflowID("a1"); got != "sos-a1" {
		t.Errorf("expected sos-a1, got %s", got)
	}
}

// ---- Activities ----

type memAlerts struct {
	alert     domain.SOSAlert
	notified  bool
	escalated bool
}

func (m *memAlerts) Create(ctx context.Context, a *domain.SOSAlert) error { return nil }
func (m *memAlerts) GetByID(ctx context.Context, id string) (*domain.SOSAlert, error) {
	if id != m.alert.ID {
		return nil, domain.ErrNotFound
	}
	cp := m.alert
	return &cp, nil
}
func (m *memAlerts) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	return nil, nil
}
func (m *memAlerts) MarkNotified(ctx context.Context, id string) error {
	m.notified = true
	return nil
}
func (m *memAlerts) MarkAuthoritiesContacted(ctx context.Context, id string) error {
	m.escalated = true
	return nil
}
func (m *memAlerts) Resolve(ctx context.Context, id string) error { return nil }

type recordingNotifier struct {
	contacts    []string
	authorities []string
	err         error
}

func (r *recordingNotifier) NotifyContact(ctx context.Context, c domain.EmergencyContact, msg string) error {
	if r.err != nil {
		return r.err
	}
	r.contacts = append(r.contacts, c.Name+": "+msg)
	return nil
}
func (r *recordingNotifier) NotifyAuthorities(ctx context.Context, a *domain.SOSAlert, msg string) error {
	r.authorities = append(r.authorities, a.ID)
	return nil
}

func TestActivities_NotifyAndEscalate(t *testing.T) {
	alerts := &memAlerts{alert: domain.SOSAlert{
		ID:        "a1",
		Location:  domain.GeoPoint{Lat: 43.26, Lon: -2.93},
		Status:    domain.SOSActive,
		CreatedAt: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC),
	}}
	notifier := &recordingNotifier{}
	acts := &SOSActivities{Alerts: alerts, Notifier: notifier}
	ctx := context.Background()

	if err := acts.NotifyContact(ctx, "a1", ane); err != nil {
		t.Fatal(err)
	}
	if len(notifier.contacts) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.contacts))
	}

	status, err := acts.AlertStatus(ctx, "a1")
	if err != nil || status != domain.SOSActive {
		t.Fatalf("expected active status, got %s (%v)", status, err)
	}

	if err := acts.NotifyAuthorities(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := acts.MarkAuthoritiesContacted(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if !alerts.escalated || len(notifier.authorities) != 1 {
		t.Error("expected escalation to be recorded")
	}

	if err := acts.NotifyContact(ctx, "missing", ane); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivities_NotifierError(t *testing.T) {
	alerts := &memAlerts{alert: domain.SOSAlert{ID: "a1", Status: domain.SOSActive}}
	acts := &SOSActivities{Alerts: alerts, Notifier: &recordingNotifier{err: errors.New("boom")}}

	if err := acts.NotifyContact(context.Background(), "a1", ane); err == nil {
		t.Fatal("expected error")
	}
}
