package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes *usecases.RouteService
	Crimes *usecases.CrimeService
	SOS    *usecases.SOSService
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger
}
