// Package osrm implements ports.RoutingProvider against the OSRM HTTP API.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
	"github.com/samirrijal/saferoute/internal/pkg/resilience"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
)

var _ ports.RoutingProvider = (*Client)(nil)

var profiles = map[domain.TravelMode]string{
	domain.Walk: "foot",
	domain.Bike: "bike",
	domain.Car:  "car",
}

// Config configures the client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// Client queries an OSRM server for routes.
type Client struct {
	base       string
	http       *fasthttp.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
}

// New creates a Client. Requests are rate limited client-side so a shared
// public OSRM instance is not hammered.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	c := &Client{
		base: cfg.BaseURL,
		http: &fasthttp.Client{
			Name:                "saferoute",
			MaxConnsPerHost:     16,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		timeout:    cfg.Timeout,
		attempts:   cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// Routes returns OSRM's candidate routes between two points, best first.
func (c *Client) Routes(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error) {
	profile, ok := profiles[mode]
	if !ok {
		profile = profiles[domain.Walk]
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRoutingRequest, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("osrm.profile", profile), attribute.Bool("osrm.alternatives", alternatives))

	uri := c.base + "/route/v1/" + profile + "/" +
		coord(from.Lon) + "," + coord(from.Lat) + ";" + coord(to.Lon) + "," + coord(to.Lat) +
		"?overview=full&geometries=geojson&alternatives=" + strconv.FormatBool(alternatives)

	start := time.Now()
	options, err := resilience.Retry(ctx, "osrm.route", c.attempts, c.retryDelay, func(ctx context.Context) ([]domain.RouteOption, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, resilience.Permanent(err)
		}
		return c.fetch(ctx, uri)
	})
	metrics.RoutingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RoutingRequests.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.RoutingRequests.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("osrm.routes", len(options)))
	return options, nil
}

func (c *Client) fetch(ctx context.Context, uri string) ([]domain.RouteOption, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusTooManyRequests || status >= 500 {
		return nil, fmt.Errorf("osrm: status %d", status)
	}

	var body routeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("osrm: decode response (status %d): %w", status, err))
	}
	if status != fasthttp.StatusOK || body.Code != "Ok" {
		return nil, resilience.Permanent(fmt.Errorf("osrm: status %d: %s %s", status, body.Code, body.Message))
	}

	out := make([]domain.RouteOption, 0, len(body.Routes))
	for _, r := range body.Routes {
		route := make(domain.Route, 0, len(r.Geometry.Coordinates))
		for _, c := range r.Geometry.Coordinates {
			if len(c) < 2 {
				continue
			}
			route = append(route, domain.GeoPoint{Lat: c[1], Lon: c[0]})
		}
		out = append(out, domain.RouteOption{Coordinates: route, Distance: r.Distance, Duration: r.Duration})
	}
	return out, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
