package dto

import "github.com/google/uuid"

type EmailAndPasswordRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	Refresh     string `json:"refreshToken"`
	DeviceToken string `json:"deviceToken"`
}

type TokenPair struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

type UserIdentity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type LoginResponse struct {
	Access  string       `json:"accessToken"`
	Refresh string       `json:"refreshToken"`
	User    UserIdentity `json:"user"`
}
