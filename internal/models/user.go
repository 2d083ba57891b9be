package models

import "time"

// User represents an application user stored in the users table. Permission
// modeling is binary: administrators manage users and may delete requests,
// everyone else only operates on their own requests.
type User struct {
	ID                 string    `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	FullName           string    `db:"full_name" json:"full_name"`
	PasswordHash       *string   `db:"password_hash" json:"-"`
	NeedsPasswordReset bool      `db:"needs_password_reset" json:"needs_password_reset"`
	IsAdmin            bool      `db:"is_admin" json:"is_admin"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Active *bool
	Search string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
