package dto

import "github.com/yigit/campusblog/internal/app/models"

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name               string                    `json:"name" binding:"required,notblank,max=100" example:"Jane Doe"`
	Email              string                    `json:"email" binding:"required,email,max=255" example:"jane@campus.edu"`
	Password           string                    `json:"password" binding:"required,min=8,max=72" example:"s3cretpass"`
	Role               models.RoleType           `json:"role" binding:"required,role" example:"STUDENT"`
	LanguagePreference models.LanguagePreference `json:"languagePreference" binding:"omitempty,language" example:"ENG"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@campus.edu"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"86400"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *models.User  `json:"user"`
}
