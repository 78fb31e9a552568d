package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                 int64              `json:"id" db:"id" example:"1"`
	Name               string             `json:"name" db:"name" example:"Jane Doe"`
	Email              string             `json:"email" db:"email" example:"jane@campus.edu"`
	Password           string             `json:"-" db:"password"` // bcrypt hash, never serialized
	RoleType           RoleType           `json:"role" db:"role" example:"STUDENT"`
	LanguagePreference LanguagePreference `json:"languagePreference" db:"language_preference" example:"ENG"`
	IsVerified         bool               `json:"isVerified" db:"is_verified" example:"false"`
	CreatedAt          time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt" db:"updated_at"`
}
