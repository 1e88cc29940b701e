package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.EventSubscriber = (*Subscriber)(nil)

const (
	sosConsumer   = "sos-notifier"
	sosMaxDeliver = 5
	sosAckWait    = 30 * time.Second
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the streams exist.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// decodeSOS parses an alert payload. A payload without an ID cannot be
// correlated with storage and is rejected.
func decodeSOS(data []byte) (*domain.SOSAlert, error) {
	var alert domain.SOSAlert
	if err := json.Unmarshal(data, &alert); err != nil {
		return nil, err
	}
	if alert.ID == "" {
		return nil, fmt.Errorf("sos event without id")
	}
	return &alert, nil
}

// SubscribeSOSAlerts delivers each alert to handler through a durable
// consumer. Handler errors are redelivered up to sosMaxDeliver times;
// undecodable messages are terminated.
func (s *Subscriber) SubscribeSOSAlerts(ctx context.Context, handler func(ctx context.Context, alert *domain.SOSAlert) error) error {
	sub, err := s.js.Subscribe(SOSSubjects, func(msg *nats.Msg) {
		alert, err := decodeSOS(msg.Data)
		if err != nil {
			slog.Error("drop malformed sos event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, alert); err != nil {
			slog.Warn("sos handler failed, redelivering", "alert_id", alert.ID, "error", err)
			_ = msg.NakWithDelay(2 * time.Second)
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(sosConsumer),
		nats.ManualAck(),
		nats.AckWait(sosAckWait),
		nats.MaxDeliver(sosMaxDeliver),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
