package ports

import (
	"context"

	"github.com/vettrack/auth-service/internal/core/domain"
)

// UserRepository defines the persistence contract for user accounts.
// Emails are compared case-insensitively; implementations are expected to
// enforce uniqueness and surface duplicate inserts as domain.ErrUserExists.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, user *domain.User, newHash string) error
}
