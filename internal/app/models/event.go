package models

import "time"

// Event represents a campus event hosted by a user
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	CoverImage  string    `json:"coverImage" db:"cover_image"`
	StartDate   time.Time `json:"startDate" db:"start_date"`
	EndDate     time.Time `json:"endDate" db:"end_date"`
	HostID      int64     `json:"hostId" db:"host_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Related entities
	Host      *User   `json:"host,omitempty"`
	Attendees []int64 `json:"attendees"`
}

// HasAttendee reports whether userID is registered for the event
func (e *Event) HasAttendee(userID int64) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}
