package dto

// CreateUserPayload is submitted by an administrator to open an account.
// The provisional password must be replaced by the user on first login.
type CreateUserPayload struct {
	Username            string `json:"username" validate:"required,min=4,max=64"`
	Email               string `json:"email" validate:"required,email"`
	FullName            string `json:"full_name" validate:"required,min=3,max=120"`
	ProvisionalPassword string `json:"provisional_password" validate:"required,min=6,max=128"`
	IsAdmin             bool   `json:"is_admin"`
}

// UpdateUserPayload mutates account metadata; password changes go through
// the auth endpoints.
type UpdateUserPayload struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=3,max=120"`
	IsAdmin  *bool  `json:"is_admin"`
	Active   *bool  `json:"active"`
}

// UserQuery mirrors supported user listing filters.
type UserQuery struct {
	Search string `form:"search"`
	Active *bool  `form:"active"`
}
