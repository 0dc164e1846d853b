package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vettrack/auth-service/internal/core/domain"
	"github.com/vettrack/auth-service/internal/core/ports"
	"github.com/vettrack/auth-service/internal/core/security"
)

// AuthService orchestrates registration, login, session validation, logout,
// and password change. It holds no mutable state of its own; everything
// persistent lives behind the two repositories, so the service is safe to
// share across concurrent requests.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	tx       ports.TxRunner
	hasher   *security.PasswordHasher
	tokens   *security.TokenCodec
	log      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	tx ports.TxRunner,
	hasher *security.PasswordHasher,
	tokens *security.TokenCodec,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tx:       tx,
		hasher:   hasher,
		tokens:   tokens,
		log:      log,
	}
}

// Register creates a new account with the default role. The pre-insert
// existence check is advisory; the store's unique constraint is the final
// authority, so a duplicate-insert race still resolves to ErrUserExists.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.log.Warn().Str("email", email).Msg("registration rejected: email already registered")
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return nil, domain.ErrPasswordHashing
	}

	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Authenticate verifies credentials and issues a fresh session. The second
// return value is the raw bearer token; only its lookup hash is persisted.
func (s *AuthService) Authenticate(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same failure as a wrong password so responses cannot be
			// used to probe which emails are registered.
			s.log.Warn().Str("email", email).Msg("login rejected: unknown email")
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("authenticate: %w", err)
	}

	if !user.Status {
		s.log.Warn().Str("user_id", user.ID).Msg("login rejected: account deactivated")
		return nil, "", domain.ErrAccountDeactivated
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn().Str("user_id", user.ID).Msg("login rejected: wrong password")
		return nil, "", domain.ErrInvalidCredentials
	}

	rawToken, lookupHash, err := s.tokens.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("authenticate: %w", err)
	}
	expiresAt := s.tokens.Expiry(time.Now().UTC())

	var userAgent *string
	if clientType != "" {
		userAgent = &clientType
	}

	if _, err := s.sessions.Create(ctx, user.ID, lookupHash, expiresAt, userAgent, sanitizeIP(clientIP)); err != nil {
		return nil, "", fmt.Errorf("authenticate: create session: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user); err != nil {
		return nil, "", fmt.Errorf("authenticate: update last login: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("token_hash", lookupHash[:8]).
		Msg("login successful")
	return user, rawToken, nil
}

// ValidateSession resolves a raw bearer token to its owning user. Unknown,
// expired, and revoked tokens, and tokens whose owner is deactivated, all
// fail identically with ErrInvalidSession.
func (s *AuthService) ValidateSession(ctx context.Context, rawToken string) (*domain.User, error) {
	session, user, err := s.findValid(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if user == nil {
		// The session row exists but its owner does not. Store
		// inconsistency; reject the token rather than crash.
		s.log.Error().Str("session_id", session.ID).Msg("session has no resolvable owner")
		return nil, domain.ErrInvalidSession
	}

	return user, nil
}

// Logout revokes the session behind rawToken. A second logout with the same
// token fails with ErrInvalidSession: an already-revoked session is
// indistinguishable from one that never existed.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	session, _, err := s.findValid(ctx, rawToken)
	if err != nil {
		return err
	}

	if err := s.sessions.Revoke(ctx, session); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info().Str("user_id", session.UserID).Msg("session revoked")
	return nil
}

// ChangePassword replaces the user's password hash and revokes every live
// session the user owns, including the one authenticating this request. The
// hash update and the bulk revocation commit as one atomic unit.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.log.Warn().Str("user_id", user.ID).Msg("password change rejected: wrong current password")
		return domain.ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return domain.ErrPasswordHashing
	}

	var revoked int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user, newHash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		count, err := s.sessions.RevokeAllForUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		revoked = count
		return nil
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Int64("sessions_revoked", revoked).
		Msg("password changed")
	return nil
}

// findValid maps every store-level miss to ErrInvalidSession so callers see
// a single unified failure.
func (s *AuthService) findValid(ctx context.Context, rawToken string) (*domain.Session, *domain.User, error) {
	lookupHash := s.tokens.Hash(rawToken)

	session, user, err := s.sessions.FindValid(ctx, lookupHash)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Debug().Str("token_hash", lookupHash[:8]).Msg("no valid session for token")
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("find session: %w", err)
	}
	return session, user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sanitizeIP keeps only syntactically valid IP literals; anything else is
// stored as absent rather than failing the login.
func sanitizeIP(ip string) *string {
	if net.ParseIP(ip) == nil {
		return nil
	}
	return &ip
}
