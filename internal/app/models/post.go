package models

import "time"

// Post is a blog entry written by a user
type Post struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	AuthorID  int64     `json:"authorId" db:"author_id"`
	AISummary *string   `json:"aiSummary" db:"ai_summary"` // nil until the summarizer reports back
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Related entities
	Author   *User      `json:"author,omitempty"`
	Likes    []int64    `json:"likes"`
	Comments []*Comment `json:"comments,omitempty"`
}

// LikedBy reports whether userID is in the like set
func (p *Post) LikedBy(userID int64) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
