package employees

import (
	"errors"
	"time"
)

// Employee is a staff account. Role is one of the fixed role names understood
// by the rbac package.
type Employee struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// PasswordHash never leaves the server.
	PasswordHash string `json:"-"`
}

// ListFilter narrows employee listings.
type ListFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Page     int
	PerPage  int
}

var (
	// ErrNotFound indicates a missing employee record.
	ErrNotFound = errors.New("employees: not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("employees: email already exists")
	// ErrInvalidRole indicates a role outside the fixed set.
	ErrInvalidRole = errors.New("employees: invalid role")
)
