package dto

import "github.com/yigit/campusblog/internal/app/models"

// UserFilterRequest represents user listing parameters
type UserFilterRequest struct {
	Search string `form:"search"`
}

// UpdateProfileRequest changes the caller's own profile. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name               *string                    `json:"name" binding:"omitempty,notblank,max=100" example:"Jane Doe"`
	LanguagePreference *models.LanguagePreference `json:"languagePreference" binding:"omitempty,language" example:"FR"`
}

// SetVerificationRequest grants or revokes administrative rights
type SetVerificationRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required" example:"true"`
}
