package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/service"
	"github.com/skillswap/course-marketplace/internal/utils"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session JWT.
const SessionCookie = "token"

// Authenticator resolves a raw session token to a live user.
// *service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, *utils.SessionClaims, error)
}

// SessionToken returns the raw session token of the request. The cookie
// wins; an Authorization Bearer header is accepted for API clients.
func SessionToken(c echo.Context) string {
	if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// JWTAuth returns an Echo middleware that requires a valid session. The
// token is verified and its user loaded through a; the user, the claims,
// the user id and the role are then stored in the request context so
// handlers can read them with CurrentUser, UserID and Claims.
func JWTAuth(a Authenticator, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, claims, err := a.Authenticate(ctx, SessionToken(c))
			if err != nil {
				var se *service.Error
				switch {
				case errors.As(err, &se) && errors.Is(err, service.ErrForbidden):
					return deny(c, http.StatusForbidden, se.Message)
				case errors.As(err, &se):
					return deny(c, http.StatusUnauthorized, se.Message)
				default:
					log.Error("authenticate failed", "error", err)
					return deny(c, http.StatusInternalServerError, "Internal server error")
				}
			}

			setIdentity(c, u, claims)
			return next(c)
		}
	}
}

func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}
