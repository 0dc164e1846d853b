package ports

import (
	"context"

	"github.com/vettrack/auth-service/internal/core/domain"
)

// AuthService is the authentication engine exposed to the transport layer.
// Authenticate returns the raw bearer token alongside the user; this is the
// only place the raw secret exists outside the client.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error)
	ValidateSession(ctx context.Context, rawToken string) (*domain.User, error)
	Logout(ctx context.Context, rawToken string) error
	ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error
}
