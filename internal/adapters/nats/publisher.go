package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Subjects used on the broker.
const (
	SOSSubjectPrefix   = "saferoute.sos."
	SOSSubjects        = "saferoute.sos.>"
	RouteScoredSubject = "saferoute.routes.scored"
	RouteSubjects      = "saferoute.routes.>"
)

// streams lists the JetStream streams the services rely on.
var streams = []nats.StreamConfig{
	{
		Name:      "SOS_ALERTS",
		Subjects:  []string{SOSSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
		// duplicate publishes of the same alert are dropped by Nats-Msg-Id
		Duplicates: 10 * time.Minute,
	},
	{
		Name:      "ROUTE_EVENTS",
		Subjects:  []string{RouteSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// SOSSubject is the subject an alert is published on.
func SOSSubject(alertID string) string {
	return SOSSubjectPrefix + alertID
}

// PublishSOSAlert announces a newly raised alert.
func (p *Publisher) PublishSOSAlert(ctx context.Context, alert *domain.SOSAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SOSSubject(alert.ID), data, nats.Context(ctx), nats.MsgId(alert.ID))
	return err
}

// RouteScoredEvent is the compact summary published after a route is scored.
// Coordinates are left out to keep the event small.
type RouteScoredEvent struct {
	RouteID      string            `json:"route_id"`
	SafetyScore  int               `json:"safety_score"`
	Distance     float64           `json:"distance"`
	Duration     float64           `json:"duration"`
	Mode         domain.TravelMode `json:"mode"`
	TimeOfDay    domain.TimeOfDay  `json:"time_of_day"`
	Fallback     bool              `json:"fallback"`
	Warnings     []string          `json:"warnings"`
	Alternatives []int             `json:"alternative_scores"`
}

// NewRouteScoredEvent summarises a plan.
func NewRouteScoredEvent(plan *domain.RoutePlan) RouteScoredEvent {
	alts := make([]int, 0, len(plan.Alternatives))
	for _, a := range plan.Alternatives {
		alts = append(alts, a.SafetyScore)
	}
	return RouteScoredEvent{
		RouteID:      plan.RouteID,
		SafetyScore:  plan.SafetyScore,
		Distance:     plan.Distance,
		Duration:     plan.Duration,
		Mode:         plan.Mode,
		TimeOfDay:    plan.TimeOfDay,
		Fallback:     plan.Fallback,
		Warnings:     plan.Warnings,
		Alternatives: alts,
	}
}

// PublishRouteScored records that a route plan was produced.
func (p *Publisher) PublishRouteScored(ctx context.Context, plan *domain.RoutePlan) error {
	data, err := json.Marshal(NewRouteScoredEvent(plan))
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RouteScoredSubject, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for core NATS subscribers such as
// the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection (e.g. for the WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("saferoute"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
