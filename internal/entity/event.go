package entity

type EventStatus string

const (
	EventStatusAvailable EventStatus = "available"
	EventStatusFewSpots  EventStatus = "few-spots"
	EventStatusFull      EventStatus = "full"
)

// fewSpotsRatio is the share of remaining capacity at or below which an event is "few-spots".
const fewSpotsRatio = 0.2

type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Category    Category `json:"category"`
	Capacity    Capacity `json:"capacity"`
	Pricing     Pricing  `json:"pricing"`
	Location    Location `json:"location"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Capacity struct {
	Max        int `json:"max"`
	Registered int `json:"registered"`
}

type Pricing struct {
	Individual float64 `json:"individual"`
}

type Location struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

type EventsPage struct {
	Events  []Event `json:"events"`
	Total   int     `json:"total"`
	LastKey string  `json:"lastKey,omitempty"`
}

// EventWithWaitlist is an event as served to clients: the upstream record plus derived facts.
type EventWithWaitlist struct {
	Event
	Status         EventStatus `json:"status"`
	AvailableSpots int         `json:"availableSpots"`
	WaitlistSize   int         `json:"waitlistSize"`
}

type Registration struct {
	AttendeeEmail string `json:"attendeeEmail"`
	AttendeeName  string `json:"attendeeName"`
	GroupSize     int    `json:"groupSize,omitempty"`
}

type RegistrationResult struct {
	Success        bool   `json:"success"`
	RegistrationID string `json:"registrationId"`
	Event          Event  `json:"event"`
	Attendee       struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		GroupSize    int    `json:"groupSize"`
		RegisteredAt string `json:"registeredAt"`
	} `json:"attendee"`
}

// AvailableSpots returns the remaining capacity, never below zero.
func (c Capacity) AvailableSpots() int {
	if c.Registered >= c.Max {
		return 0
	}
	return c.Max - c.Registered
}

// Status labels the capacity: full, few-spots (20% or less left) or available.
func (c Capacity) Status() EventStatus {
	available := c.AvailableSpots()
	if available == 0 {
		return EventStatusFull
	}
	if float64(available)/float64(c.Max) <= fewSpotsRatio {
		return EventStatusFewSpots
	}
	return EventStatusAvailable
}
