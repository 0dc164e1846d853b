package domain

import "time"

// DefaultRole is assigned to newly registered accounts.
const DefaultRole = "vet"

// User models a registered account. The password is never held in plain
// form; only its bcrypt hash is stored.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Status       bool       `json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
