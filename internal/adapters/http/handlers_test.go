package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/saferoute/internal/adapters/http"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/safety"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// ---- Mock repositories ----

type mockCrimeRepo struct {
	insertFn    func(ctx context.Context, rec *domain.CrimeRecord) error
	inBoundsFn  func(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error)
	nearRouteFn func(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error)
}

func (m *mockCrimeRepo) Insert(ctx context.Context, rec *domain.CrimeRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	return nil
}
func (m *mockCrimeRepo) InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, b, limit)
	}
	return nil, nil
}
func (m *mockCrimeRepo) NearRoute(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error) {
	if m.nearRouteFn != nil {
		return m.nearRouteFn(ctx, route, meters)
	}
	return nil, nil
}

type mockSOSRepo struct {
	alerts map[string]*domain.SOSAlert
}

func newMockSOSRepo() *mockSOSRepo {
	return &mockSOSRepo{alerts: map[string]*domain.SOSAlert{}}
}

func (m *mockSOSRepo) Create(ctx context.Context, a *domain.SOSAlert) error {
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}
func (m *mockSOSRepo) GetByID(ctx context.Context, id string) (*domain.SOSAlert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
func (m *mockSOSRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	var out []domain.SOSAlert
	for _, a := range m.alerts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}
func (m *mockSOSRepo) MarkNotified(ctx context.Context, id string) error             { return nil }
func (m *mockSOSRepo) MarkAuthoritiesContacted(ctx context.Context, id string) error { return nil }
func (m *mockSOSRepo) Resolve(ctx context.Context, id string) error {
	if a, ok := m.alerts[id]; ok {
		a.Status = domain.SOSResolved
		return nil
	}
	return domain.ErrNotFound
}

type mockContactRepo struct {
	contacts []domain.EmergencyContact
}

func (m *mockContactRepo) Create(ctx context.Context, c *domain.EmergencyContact) error {
	m.contacts = append(m.contacts, *c)
	return nil
}
func (m *mockContactRepo) ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	var out []domain.EmergencyContact
	for _, c := range m.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *mockContactRepo) Delete(ctx context.Context, userID, id string) error {
	for i, c := range m.contacts {
		if c.UserID == userID && c.ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type mockRouting struct {
	routesFn func(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error)
}

func (m *mockRouting) Routes(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error) {
	if m.routesFn != nil {
		return m.routesFn(ctx, from, to, mode, alternatives)
	}
	return nil, errors.New("routing unavailable")
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Helpers ----

// shortRoute has three points roughly 55 m apart along the equator.
var shortRoute = domain.Route{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.0005}, {Lat: 0, Lon: 0.001}}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

type fixture struct {
	crimes   *mockCrimeRepo
	routing  *mockRouting
	alerts   *mockSOSRepo
	contacts *mockContactRepo
}

func makeDeps(opts ...func(*fixture)) *handler.Dependencies {
	f := &fixture{
		crimes:   &mockCrimeRepo{},
		routing:  &mockRouting{},
		alerts:   newMockSOSRepo(),
		contacts: &mockContactRepo{},
	}
	for _, o := range opts {
		o(f)
	}
	scorer := safety.New(safety.DefaultWeights())
	return &handler.Dependencies{
		Routes: usecases.NewRouteService(f.routing, f.crimes, nil, scorer),
		Crimes: usecases.NewCrimeService(f.crimes, nil, scorer),
		SOS:    usecases.NewSOSService(f.alerts, f.contacts, nil),
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func do(t *testing.T, app *fiber.App, method, target, body, user string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return e.Code
}

// ---- Route handler tests ----

func TestCalculateRoute_Success(t *testing.T) {
	deps := makeDeps(func(f *fixture) {
		f.routing.routesFn = func(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error) {
			if mode != domain.Walk {
				t.Errorf("expected walk mode, got %s", mode)
			}
			if !alternatives {
				t.Error("expected alternatives to be requested")
			}
			return []domain.RouteOption{{Coordinates: shortRoute, Distance: 111, Duration: 80}}, nil
		}
	})
	app := setupApp(deps)

	status, body := do(t, app, "POST", "/v1/routes/calculate",
		`{"source_lat":0,"source_lng":0,"dest_lat":0,"dest_lng":0.001,"time_of_day":"day"}`, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var plan domain.RoutePlan
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatal(err)
	}
	if plan.SafetyScore != 74 {
		t.Errorf("expected safety score 74, got %d", plan.SafetyScore)
	}
	if plan.Mode != domain.Walk || plan.TimeOfDay != domain.Day {
		t.Errorf("unexpected mode/time: %s/%s", plan.Mode, plan.TimeOfDay)
	}
	if plan.RouteID == "" {
		t.Error("expected a route id")
	}
	if plan.Fallback {
		t.Error("did not expect fallback route")
	}
	if len(plan.Coordinates) != 3 {
		t.Errorf("expected 3 coordinates, got %d", len(plan.Coordinates))
	}
}

func TestCalculateRoute_FallbackWhenProviderFails(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/calculate",
		`{"source_lat":43.26,"source_lng":-2.93,"dest_lat":43.27,"dest_lng":-2.92,"mode":"car","time_of_day":"day"}`, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var plan domain.RoutePlan
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatal(err)
	}
	if !plan.Fallback {
		t.Error("expected fallback route")
	}
	if len(plan.Coordinates) != 11 {
		t.Errorf("expected 11 interpolated points, got %d", len(plan.Coordinates))
	}
}

func TestCalculateRoute_InvalidCoordinates(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/calculate",
		`{"source_lat":91,"source_lng":0,"dest_lat":0,"dest_lng":0}`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

func TestCalculateRoute_MalformedBody(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/calculate", `{"source_lat":`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "bad_request" {
		t.Errorf("expected bad_request, got %s", code)
	}
}

func TestScoreRoute_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/score",
		`{"coordinates":[[0,0],[0,0.0005],[0,0.001]],"time_of_day":"day","mode":"car"}`, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var scored domain.ScoredRoute
	if err := json.Unmarshal(body, &scored); err != nil {
		t.Fatal(err)
	}
	if scored.SafetyScore != 83 {
		t.Errorf("expected 83, got %d", scored.SafetyScore)
	}
	if len(scored.Warnings) != 2 || scored.Warnings[0] != safety.NoteWellLit {
		t.Errorf("unexpected warnings: %v", scored.Warnings)
	}
}

func TestScoreRoute_EmptyRouteIsNeutral(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/score", `{"coordinates":[]}`, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var scored domain.ScoredRoute
	json.Unmarshal(body, &scored)
	if scored.SafetyScore != 50 {
		t.Errorf("expected neutral 50, got %d", scored.SafetyScore)
	}
}

func TestScoreRoute_BadPair(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/routes/score", `{"coordinates":[[0,0,0]]}`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

// ---- Crime handler tests ----

func TestHotspots_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	status, _ := do(t, app, "GET", "/v1/crime/hotspots?ne_lat=1&ne_lng=1", "", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestHotspots_InvertedBox(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "GET", "/v1/crime/hotspots?ne_lat=0&ne_lng=0&sw_lat=1&sw_lng=1", "", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

func TestHotspots_Success(t *testing.T) {
	var gotLimit int
	deps := makeDeps(func(f *fixture) {
		f.crimes.inBoundsFn = func(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error) {
			gotLimit = limit
			return []domain.CrimeRecord{{
				ID:       "c1",
				Location: domain.GeoPoint{Lat: 0.5, Lon: 0.5},
				Type:     domain.CrimeAssault,
				Severity: 4,
			}}, nil
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/crime/hotspots?ne_lat=1&ne_lng=1&sw_lat=0&sw_lng=0", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected hotspot cache header, got %q", cc)
	}
	if gotLimit != 100 {
		t.Errorf("expected default limit 100, got %d", gotLimit)
	}

	var result struct {
		Count    int              `json:"count"`
		Hotspots []domain.Hotspot `json:"hotspots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || len(result.Hotspots) != 1 {
		t.Fatalf("expected one hotspot, got %+v", result)
	}
	if result.Hotspots[0].Risk != 4.0 {
		t.Errorf("expected risk 4.0, got %v", result.Hotspots[0].Risk)
	}
}

func TestReportCrime_Created(t *testing.T) {
	var stored *domain.CrimeRecord
	deps := makeDeps(func(f *fixture) {
		f.crimes.insertFn = func(ctx context.Context, rec *domain.CrimeRecord) error {
			rec.ID = "new-id"
			stored = rec
			return nil
		}
	})
	app := setupApp(deps)

	status, body := do(t, app, "POST", "/v1/crime/reports",
		`{"lat":43.26,"lng":-2.93,"crime_type":"Theft","severity":2,"location_type":"street"}`, "")
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	if stored == nil || stored.Type != domain.CrimeTheft {
		t.Fatalf("expected normalised theft record, got %+v", stored)
	}
	if stored.ReportedAt.IsZero() {
		t.Error("expected reported_at to be defaulted")
	}
}

func TestReportCrime_BadSeverity(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/crime/reports",
		`{"lat":43.26,"lng":-2.93,"crime_type":"theft","severity":9}`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

// ---- SOS handler tests ----

func TestTriggerSOS_RequiresUser(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/sos/trigger", `{"lat":1,"lng":1}`, "")
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if code := errorCode(t, body); code != "unauthorized" {
		t.Errorf("expected unauthorized, got %s", code)
	}
}

func TestTriggerSOS_Success(t *testing.T) {
	deps := makeDeps(func(f *fixture) {
		f.contacts.contacts = []domain.EmergencyContact{
			{ID: "k1", UserID: "u1", Name: "Ane", Phone: "+34600000000"},
			{ID: "k2", UserID: "other", Name: "Mikel", Phone: "+34600000001"},
		}
	})
	app := setupApp(deps)

	status, body := do(t, app, "POST", "/v1/sos/trigger", `{"lat":43.26,"lng":-2.93,"message":"followed"}`, "u1")
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}

	var result struct {
		Success          bool     `json:"success"`
		SOSID            string   `json:"sos_id"`
		NotifiedContacts []string `json:"notified_contacts"`
		MapLink          string   `json:"map_link"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.SOSID == "" {
		t.Errorf("unexpected response: %s", body)
	}
	if len(result.NotifiedContacts) != 1 || result.NotifiedContacts[0] != "Ane" {
		t.Errorf("expected only the caller's contact, got %v", result.NotifiedContacts)
	}
	if result.MapLink != "https://maps.google.com/?q=43.26,-2.93" {
		t.Errorf("unexpected map link %s", result.MapLink)
	}
}

func TestTriggerSOS_NoCacheHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/sos/trigger", strings.NewReader(`{"lat":1,"lng":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("expected private, no-store, got %q", cc)
	}
}

func TestSOSHistoryAndResolve(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	_, body := do(t, app, "POST", "/v1/sos/trigger", `{"lat":1,"lng":1}`, "u1")
	var created struct {
		SOSID string `json:"sos_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}

	status, body := do(t, app, "GET", "/v1/sos/history", "", "u1")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var hist struct {
		Alerts []domain.SOSAlert `json:"alerts"`
	}
	json.Unmarshal(body, &hist)
	if len(hist.Alerts) != 1 || hist.Alerts[0].Status != domain.SOSActive {
		t.Fatalf("expected one active alert, got %+v", hist.Alerts)
	}

	status, body = do(t, app, "GET", "/v1/sos/"+created.SOSID, "", "u1")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var got domain.SOSAlert
	json.Unmarshal(body, &got)
	if got.ID != created.SOSID {
		t.Errorf("expected alert %s, got %s", created.SOSID, got.ID)
	}

	// another user cannot see or resolve the alert
	status, _ = do(t, app, "GET", "/v1/sos/"+created.SOSID, "", "u2")
	if status != 404 {
		t.Errorf("expected 404 reading foreign alert, got %d", status)
	}
	status, _ = do(t, app, "POST", "/v1/sos/"+created.SOSID+"/resolve", "", "u2")
	if status != 404 {
		t.Errorf("expected 404 for foreign alert, got %d", status)
	}

	status, body = do(t, app, "POST", "/v1/sos/"+created.SOSID+"/resolve", "", "u1")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var resolved domain.SOSAlert
	json.Unmarshal(body, &resolved)
	if resolved.Status != domain.SOSResolved || resolved.ResolvedAt == nil {
		t.Errorf("expected resolved alert, got %+v", resolved)
	}
}

func TestSOSHistory_EmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "GET", "/v1/sos/history", "", "nobody")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"alerts":[]`) {
		t.Errorf("expected empty array, got %s", body)
	}
}

// ---- Contact handler tests ----

func TestContacts_Lifecycle(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	status, body := do(t, app, "POST", "/v1/contacts", `{"name":"Ane","phone":"+34600000000"}`, "u1")
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var c domain.EmergencyContact
	json.Unmarshal(body, &c)
	if c.ID == "" || c.Relationship != "other" || c.UserID != "u1" {
		t.Errorf("unexpected contact %+v", c)
	}

	status, body = do(t, app, "GET", "/v1/contacts", "", "u1")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var list struct {
		Contacts []domain.EmergencyContact `json:"contacts"`
	}
	json.Unmarshal(body, &list)
	if len(list.Contacts) != 1 {
		t.Fatalf("expected one contact, got %d", len(list.Contacts))
	}

	status, _ = do(t, app, "DELETE", "/v1/contacts/"+c.ID, "", "u2")
	if status != 404 {
		t.Errorf("expected 404 deleting another user's contact, got %d", status)
	}

	status, _ = do(t, app, "DELETE", "/v1/contacts/"+c.ID, "", "u1")
	if status != 204 {
		t.Errorf("expected 204, got %d", status)
	}
}

func TestContacts_Unreachable(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/contacts", `{"name":"Ane"}`, "u1")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

// ---- GraphQL ----

func TestGraphQL_RouteSafety(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query":"{ routeSafety(coordinates: [[0,0],[0,0.0005],[0,0.001]], timeOfDay: \"day\", mode: \"car\") { safety_score warnings } }"}`
	status, body := do(t, app, "POST", "/graphql", query, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data struct {
			RouteSafety struct {
				SafetyScore int      `json:"safety_score"`
				Warnings    []string `json:"warnings"`
			} `json:"routeSafety"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Data.RouteSafety.SafetyScore != 83 {
		t.Errorf("expected 83, got %d", result.Data.RouteSafety.SafetyScore)
	}
}

func TestGraphQL_CrimesNearRoute(t *testing.T) {
	var radius float64
	app := setupApp(makeDeps(func(f *fixture) {
		f.crimes.nearRouteFn = func(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error) {
			radius = meters
			return []domain.CrimeRecord{
				{ID: "c1", Location: domain.GeoPoint{Lat: 0, Lon: 0.0005}, Type: "theft", Severity: 2},
			}, nil
		}
	}))

	query := `{"query":"{ crimesNearRoute(coordinates: [[0,0],[0,0.001]]) { id crime_type severity location { lat lon } } }"}`
	status, body := do(t, app, "POST", "/graphql", query, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data struct {
			Crimes []struct {
				ID        string `json:"id"`
				CrimeType string `json:"crime_type"`
				Severity  int    `json:"severity"`
			} `json:"crimesNearRoute"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Data.Crimes) != 1 || result.Data.Crimes[0].CrimeType != "theft" {
		t.Errorf("unexpected crimes: %+v", result.Data.Crimes)
	}
	if radius != 200 {
		t.Errorf("expected default 200 m radius, got %v", radius)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReady_Checks(t *testing.T) {
	deps := makeDeps()
	deps.DB = mockPinger{}
	deps.Cache = mockPinger{}
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	deps.Cache = mockPinger{err: errors.New("connection refused")}
	app = setupApp(deps)
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 with failing cache, got %d", resp.StatusCode)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !strings.HasPrefix(result.Checks["cache"], "error:") {
		t.Errorf("expected cache error, got %q", result.Checks["cache"])
	}
}

// ---- Headers ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
