package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=4,max=64"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken        string    `json:"access_token"`
	ExpiresIn          int64     `json:"expires_in"`
	IssuedAt           time.Time `json:"issued_at"`
	User               UserInfo  `json:"user"`
	NeedsPasswordReset bool      `json:"needs_password_reset"`
}

// UserInfo is the public projection of a user embedded in auth responses.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

// FirstPasswordRequest defines the password a user sets on first login.
type FirstPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// JWTClaims carries the authenticated actor identity.
type JWTClaims struct {
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}
