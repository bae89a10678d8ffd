package entity

import (
	"time"
)

type WaitlistEntry struct {
	EventID       string    `json:"eventId"`
	AttendeeName  string    `json:"attendeeName"`
	AttendeeEmail string    `json:"attendeeEmail"`
	GroupSize     int       `json:"groupSize"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// WaitlistTable maps an event id to its queue. Slice order is queue order.
type WaitlistTable map[string][]WaitlistEntry

// Clone returns a deep copy of the table.
func (t WaitlistTable) Clone() WaitlistTable {
	clone := make(WaitlistTable, len(t))
	for eventID, queue := range t {
		copied := make([]WaitlistEntry, len(queue))
		copy(copied, queue)
		clone[eventID] = copied
	}
	return clone
}

// IndexOf returns the zero-based index of the first entry with the given email, or -1.
func (t WaitlistTable) IndexOf(eventID, email string) int {
	for i, entry := range t[eventID] {
		if entry.AttendeeEmail == email {
			return i
		}
	}
	return -1
}

type JoinResult struct {
	Position     int `json:"position"`
	TotalWaiting int `json:"totalWaiting"`
}

type LeaveResult struct {
	Success      bool `json:"success"`
	TotalWaiting int  `json:"totalWaiting"`
}

type WaitlistStatus struct {
	IsOnWaitlist bool `json:"isOnWaitlist"`
	Position     int  `json:"position"`
	TotalWaiting int  `json:"totalWaiting"`
}
