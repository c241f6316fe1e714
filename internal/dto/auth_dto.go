package dto

import "github.com/ugcmarket/realtime-go/internal/models"

// LoginRequest is the credential payload for /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest is the payload for /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=brand creator"`
}

// RefreshRequest carries the refresh token for /api/auth/refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthUserPayload is the user object embedded in auth responses.
type AuthUserPayload struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"`
}

// AuthResponse is the token bundle returned by every auth endpoint.
type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	UserRole     string          `json:"user_role"`
	User         AuthUserPayload `json:"user"`
}

// NewUserProfile maps the wire user object into the model.
func NewUserProfile(payload AuthUserPayload) models.UserProfile {
	fullName := ""
	if payload.FullName != nil {
		fullName = *payload.FullName
	}

	return models.UserProfile{
		ID:       payload.ID,
		Email:    payload.Email,
		FullName: fullName,
		Role:     payload.Role,
	}
}
