package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// userIDHeader carries the caller identity for SOS and contact endpoints.
const userIDHeader = "X-User-ID"

// userID reports the caller identity and whether one was sent.
func userID(c *fiber.Ctx) (string, bool) {
	uid := strings.TrimSpace(c.Get(userIDHeader))
	return uid, uid != ""
}

type calculateRequest struct {
	SourceLat float64 `json:"source_lat"`
	SourceLng float64 `json:"source_lng"`
	DestLat   float64 `json:"dest_lat"`
	DestLng   float64 `json:"dest_lng"`
	Mode      string  `json:"mode"`
	TimeOfDay string  `json:"time_of_day"`
}

// CalculateRouteHandler plans and scores a route between two points.
func CalculateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req calculateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		plan, err := deps.Routes.Calculate(c.UserContext(), domain.RouteRequest{
			Source:      domain.GeoPoint{Lat: req.SourceLat, Lon: req.SourceLng},
			Destination: domain.GeoPoint{Lat: req.DestLat, Lon: req.DestLng},
			Mode:        domain.ParseTravelMode(req.Mode),
			TimeOfDay:   domain.ParseTimeOfDay(req.TimeOfDay),
		})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(plan)
	}
}

type scoreRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	Mode        string      `json:"mode"`
	TimeOfDay   string      `json:"time_of_day"`
}

// ScoreRouteHandler scores a caller-supplied polyline of [lat, lng] pairs.
func ScoreRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req scoreRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		route, err := domain.ParseRoute(req.Coordinates)
		if err != nil {
			return errFromService(c, err)
		}

		tod := domain.ParseTimeOfDay(req.TimeOfDay)
		mode := domain.ParseTravelMode(req.Mode)
		scored, err := deps.Routes.ScoreRoute(c.UserContext(), route, tod, mode)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(scored)
	}
}

// HotspotsHandler returns crimes inside a bounding box with their risk.
func HotspotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, q := range []string{"ne_lat", "ne_lng", "sw_lat", "sw_lng"} {
			if c.Query(q) == "" {
				return errBadRequest(c, "ne_lat, ne_lng, sw_lat and sw_lng are required")
			}
		}

		b := domain.Bounds{
			MinLat: c.QueryFloat("sw_lat"),
			MinLon: c.QueryFloat("sw_lng"),
			MaxLat: c.QueryFloat("ne_lat"),
			MaxLon: c.QueryFloat("ne_lng"),
		}
		limit := c.QueryInt("limit", 0)

		hotspots, err := deps.Crimes.Hotspots(c.UserContext(), b, limit)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set(fiber.HeaderCacheControl, "public, max-age=300")
		return c.JSON(fiber.Map{"hotspots": hotspots, "count": len(hotspots)})
	}
}

type crimeReportRequest struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	CrimeType    string  `json:"crime_type"`
	Severity     int     `json:"severity"`
	LocationType string  `json:"location_type"`
}

// ReportCrimeHandler records a new incident.
func ReportCrimeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req crimeReportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		rec := &domain.CrimeRecord{
			Location:     domain.GeoPoint{Lat: req.Lat, Lon: req.Lng},
			Type:         domain.CrimeType(req.CrimeType),
			Severity:     req.Severity,
			LocationType: req.LocationType,
		}
		if err := deps.Crimes.Report(c.UserContext(), rec); err != nil {
			return errFromService(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

type sosRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Message string  `json:"message"`
}

// TriggerSOSHandler raises an emergency alert for the caller.
func TriggerSOSHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		var req sosRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		alert, contacts, err := deps.SOS.Trigger(c.UserContext(), uid,
			domain.GeoPoint{Lat: req.Lat, Lon: req.Lng}, req.Message)
		if err != nil {
			return errFromService(c, err)
		}

		names := make([]string, 0, len(contacts))
		for _, ct := range contacts {
			names = append(names, ct.Name)
		}

		LoggerFromCtx(c.UserContext()).Warn("sos triggered", "alert_id", alert.ID, "contacts", len(names))

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":           true,
			"sos_id":            alert.ID,
			"message":           "SOS alert triggered successfully",
			"notified_contacts": names,
			"map_link":          alert.MapLink(),
			"alert":             alert,
		})
	}
}

// SOSHistoryHandler lists the caller's alerts, newest first.
func SOSHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		alerts, err := deps.SOS.History(c.UserContext(), uid, c.QueryInt("limit", 0))
		if err != nil {
			return errFromService(c, err)
		}
		if alerts == nil {
			alerts = []domain.SOSAlert{}
		}
		return c.JSON(fiber.Map{"alerts": alerts})
	}
}

// GetSOSHandler returns one of the caller's alerts.
func GetSOSHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		alert, err := deps.SOS.Get(c.UserContext(), uid, c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(alert)
	}
}

// ResolveSOSHandler closes one of the caller's alerts.
func ResolveSOSHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		alert, err := deps.SOS.Resolve(c.UserContext(), uid, c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(alert)
	}
}

type contactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
}

// ListContactsHandler returns the caller's emergency contacts.
func ListContactsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		contacts, err := deps.SOS.ListContacts(c.UserContext(), uid)
		if err != nil {
			return errFromService(c, err)
		}
		if contacts == nil {
			contacts = []domain.EmergencyContact{}
		}
		return c.JSON(fiber.Map{"contacts": contacts})
	}
}

// AddContactHandler stores a new emergency contact for the caller.
func AddContactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		var req contactRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		contact := &domain.EmergencyContact{
			Name:         strings.TrimSpace(req.Name),
			Phone:        strings.TrimSpace(req.Phone),
			Email:        strings.TrimSpace(req.Email),
			Relationship: strings.TrimSpace(req.Relationship),
		}
		if err := deps.SOS.AddContact(c.UserContext(), uid, contact); err != nil {
			return errFromService(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(contact)
	}
}

// DeleteContactHandler removes one of the caller's contacts.
func DeleteContactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return errUnauthorized(c, userIDHeader+" header is required")
		}

		if err := deps.SOS.DeleteContact(c.UserContext(), uid, c.Params("id")); err != nil {
			return errFromService(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
