package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vettrack/auth-service/internal/api/metrics"
	"github.com/vettrack/auth-service/internal/core/domain"
)

// UserContextKey is where Session stores the validated user.
const UserContextKey = "auth_user"

// SessionValidator is the slice of the auth service the middleware needs.
type SessionValidator interface {
	ValidateSession(ctx context.Context, rawToken string) (*domain.User, error)
}

// ExtractBearerToken pulls the raw bearer token out of the Authorization
// header. A missing header, wrong scheme, or empty token is rejected with
// 401 before the engine is ever consulted.
func ExtractBearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format, expected 'Bearer <token>'")
	}

	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty bearer token")
	}

	return rawToken, nil
}

// Session validates the bearer token and injects the owning user into the
// request context. All invalid-token causes (unknown, expired, revoked,
// owner deactivated) produce the same 401.
func Session(validator SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, err := ExtractBearerToken(c)
			if err != nil {
				return err
			}

			user, err := validator.ValidateSession(c.Request().Context(), rawToken)
			if err != nil {
				metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
				return err
			}
			metrics.SessionValidationsTotal.WithLabelValues("success").Inc()

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}
