package domain

import (
	"fmt"
	"strings"
	"time"
)

// CrimeType classifies a reported incident.
type CrimeType string

const (
	CrimeTheft      CrimeType = "theft"
	CrimeHarassment CrimeType = "harassment"
	CrimeAssault    CrimeType = "assault"
	CrimeRobbery    CrimeType = "robbery"
	CrimeOther      CrimeType = "other"
)

// CrimeTypes lists the recognised incident types.
var CrimeTypes = []CrimeType{CrimeTheft, CrimeHarassment, CrimeAssault, CrimeRobbery, CrimeOther}

// Known reports whether t is one of the recognised incident types.
func (t CrimeType) Known() bool {
	for _, k := range CrimeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// CrimeRecord is a single reported incident. Records handed to the scorer
// are read-only snapshots.
type CrimeRecord struct {
	ID           string    `json:"id,omitempty"`
	Location     GeoPoint  `json:"location"`
	Type         CrimeType `json:"crime_type"`
	Severity     int       `json:"severity"` // 1-5
	LocationType string    `json:"location_type,omitempty"`
	ReportedAt   time.Time `json:"reported_at"`
}

// Validate checks the record shape before it is persisted.
func (c CrimeRecord) Validate() error {
	if !c.Location.Valid() {
		return fmt.Errorf("%w: crime location out of range", ErrInvalidInput)
	}
	if c.Severity < 1 || c.Severity > 5 {
		return fmt.Errorf("%w: severity must be 1-5, got %d", ErrInvalidInput, c.Severity)
	}
	if c.Type == "" {
		return fmt.Errorf("%w: crime_type is required", ErrInvalidInput)
	}
	return nil
}

// Hotspot is a crime record annotated with its weighted risk.
type Hotspot struct {
	CrimeRecord
	Risk float64 `json:"risk"`
}

// TimeOfDay is the coarse time bucket that drives temporal risk.
type TimeOfDay string

const (
	Day       TimeOfDay = "day"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
	LateNight TimeOfDay = "late_night"
)

// ParseTimeOfDay normalises a client supplied bucket. Unrecognised values are
// kept as-is; the scorer applies its fallback multiplier to them.
func ParseTimeOfDay(s string) TimeOfDay {
	return TimeOfDay(strings.ToLower(strings.TrimSpace(s)))
}

// Daylight reports whether the bucket has natural or evening light.
func (t TimeOfDay) Daylight() bool {
	return t == Day || t == Evening
}

// TravelMode is how the route is travelled.
type TravelMode string

const (
	Walk TravelMode = "walk"
	Bike TravelMode = "bike"
	Car  TravelMode = "car"
)

// ParseTravelMode normalises a client supplied mode, defaulting to walk.
func ParseTravelMode(s string) TravelMode {
	m := TravelMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return Walk
	}
	return m
}

// RouteOption is one candidate path returned by the routing provider.
type RouteOption struct {
	Coordinates Route   `json:"coordinates"`
	Distance    float64 `json:"distance"` // meters
	Duration    float64 `json:"duration"` // seconds
}

// RouteRequest asks for a scored route between two points.
type RouteRequest struct {
	Source      GeoPoint   `json:"source"`
	Destination GeoPoint   `json:"destination"`
	Mode        TravelMode `json:"mode"`
	TimeOfDay   TimeOfDay  `json:"time_of_day,omitempty"`
}

// ScoredRoute is a route candidate with its safety assessment.
type ScoredRoute struct {
	SafetyScore int         `json:"safety_score"`
	Distance    float64     `json:"distance"`
	Duration    float64     `json:"duration"`
	Coordinates [][]float64 `json:"coordinates"`
	Warnings    []string    `json:"warnings"`
	Description string      `json:"description,omitempty"`
}

// RoutePlan is the scored primary route plus safer or faster alternatives.
type RoutePlan struct {
	ScoredRoute
	RouteID      string        `json:"route_id"`
	TimeOfDay    TimeOfDay     `json:"time_of_day"`
	Mode         TravelMode    `json:"mode"`
	Fallback     bool          `json:"fallback"`
	Alternatives []ScoredRoute `json:"alternatives"`
}

// SOSStatus is the lifecycle state of an SOS alert.
type SOSStatus string

const (
	SOSActive   SOSStatus = "active"
	SOSResolved SOSStatus = "resolved"
)

// SOSAlert is an emergency raised by a user.
type SOSAlert struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	Location             GeoPoint   `json:"location"`
	Message              string     `json:"message,omitempty"`
	Status               SOSStatus  `json:"status"`
	ContactedAuthorities bool       `json:"contacted_authorities"`
	CreatedAt            time.Time  `json:"created_at"`
	NotifiedAt           *time.Time `json:"notified_at,omitempty"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty"`
}

// MapLink returns a shareable map URL for the alert location.
func (a SOSAlert) MapLink() string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", a.Location.Lat, a.Location.Lon)
}

// AlertText renders the message sent to contacts and authorities.
func (a SOSAlert) AlertText() string {
	msg := a.Message
	if msg == "" {
		msg = "No additional message provided"
	}
	var b strings.Builder
	b.WriteString("🚨 EMERGENCY ALERT 🚨\n\n")
	b.WriteString("A SafeRoute user is in danger and has triggered an SOS alert.\n\n")
	fmt.Fprintf(&b, "Live Location: %s\n", a.MapLink())
	fmt.Fprintf(&b, "Coordinates: %v, %v\n", a.Location.Lat, a.Location.Lon)
	fmt.Fprintf(&b, "Time: %s\n\n", a.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Message: %s\n\n", msg)
	b.WriteString("Please check on them immediately and contact local authorities if needed.\n")
	return b.String()
}

// EmergencyContact is someone notified when the user raises an SOS.
type EmergencyContact struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Relationship string    `json:"relationship"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the contact can be reached.
func (c EmergencyContact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: contact name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: contact needs a phone or email", ErrInvalidInput)
	}
	return nil
}
