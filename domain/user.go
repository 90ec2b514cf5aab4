package domain

import (
	"context"
	"time"
)

// Role governs what an identity is permitted to do.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User represents an account. The role is assigned at registration and can only
// be changed by an administrative process, never by the user themself.
// Password only lives in memory between the request and the bcrypt step.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;uniqueIndex"`
	Role         Role   `json:"role" gorm:"not null;default:USER"`
	Password     string `json:"password,omitempty" gorm:"-"`
	PasswordHash string `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the public projection of a User embedded in articles and comments.
type Author struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UserService is a set of methods to manage accounts and sign users in.
type UserService interface {
	ByID(ctx context.Context, id int) (*User, error)
	Register(ctx context.Context, user *User) error
	Authenticate(ctx context.Context, email, password string) (*User, error)
}
