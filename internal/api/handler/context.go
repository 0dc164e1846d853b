package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vettrack/auth-service/internal/api/middleware"
	"github.com/vettrack/auth-service/internal/core/domain"
)

// currentUser extracts the user injected by the Session middleware. A
// missing entry means the route was wired without the middleware; fail
// closed with 401 rather than proceed unauthenticated.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}
	return user, nil
}
