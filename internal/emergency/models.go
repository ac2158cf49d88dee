package emergency

import "time"

// Event is the parent aggregate for a burst of emergency call attempts.
// Its status is orthogonal to individual call outcomes: cancelling an event
// suppresses future actions only and never rewrites call records.
type Event struct {
	EmergencyID string `json:"emergencyId" db:"emergency_id"`
	UserID      string `json:"userId" db:"user_id"`

	Symptoms     string `json:"symptoms,omitempty" db:"symptoms"`
	LocationText string `json:"locationText,omitempty" db:"location_text"`
	LocationJSON string `json:"locationJson,omitempty" db:"location_json"`

	Status EventStatus `json:"status" db:"status"`

	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`
}

type EventStatus string

const (
	StatusActive    EventStatus = "active"
	StatusCancelled EventStatus = "cancelled"
)

// Contact is one emergency recipient. Contacts arrive with the trigger
// request; contact storage is owned by the profile service.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Location is the structured position reported by the client.
type Location struct {
	Address string `json:"address"`
	Lat     string `json:"lat"`
	Lng     string `json:"lng"`
}

// Helpline is a national emergency number surfaced to the caller UI.
type Helpline struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Helplines returned with every trigger response, for the user to act on
// directly.
func Helplines() []Helpline {
	return []Helpline{
		{Name: "National Emergency", Number: "112"},
		{Name: "Ambulance", Number: "108"},
		{Name: "Police", Number: "100"},
	}
}
