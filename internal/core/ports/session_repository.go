package ports

import (
	"context"
	"time"

	"github.com/vettrack/auth-service/internal/core/domain"
)

// SessionRepository defines the persistence contract for bearer sessions,
// keyed by token lookup hash.
//
// FindValid applies the full validity predicate: unrevoked, unexpired, and
// joined against an active owner. A session whose owner is deactivated is
// reported as domain.ErrSessionNotFound; a session whose owner record is
// missing entirely is returned with a nil user so the caller can flag the
// inconsistency.
type SessionRepository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time, userAgent, ipAddress *string) (*domain.Session, error)
	FindValid(ctx context.Context, tokenHash string) (*domain.Session, *domain.User, error)
	Revoke(ctx context.Context, session *domain.Session) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
