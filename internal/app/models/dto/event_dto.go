package dto

import "time"

// CreateEventRequest represents a new event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,notblank,max=200" example:"Spring Concert"`
	Category    string    `json:"category" binding:"required,notblank,max=50" example:"Music"`
	Description string    `json:"description" binding:"max=5000" example:"Live bands in the quad"`
	Location    string    `json:"location" binding:"max=200" example:"Main Quad"`
	CoverImage  string    `json:"coverImage" binding:"omitempty,url" example:"https://cdn.campus.edu/concert.jpg"`
	StartDate   time.Time `json:"startDate" binding:"required" example:"2026-05-01T18:00:00Z"`
	EndDate     time.Time `json:"endDate" binding:"required" example:"2026-05-01T22:00:00Z"`
}

// UpdateEventRequest edits an event. Omitted fields are kept.
type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,notblank,max=200"`
	Category    *string    `json:"category" binding:"omitempty,notblank,max=50"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Location    *string    `json:"location" binding:"omitempty,max=200"`
	CoverImage  *string    `json:"coverImage" binding:"omitempty,url"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// EventFilterRequest represents event listing parameters
type EventFilterRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
}
