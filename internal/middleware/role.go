package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes
	"strings"

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/skillswap/course-marketplace/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles. It must run after
// JWTAuth, which stores the role under the "role" key. A request without
// a role gets 401, a request with the wrong role gets 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	msg := forbiddenMessage(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || role == "" {
				return deny(c, http.StatusUnauthorized, "Access denied. Please login first.")
			}
			if !allowed[role] {
				return deny(c, http.StatusForbidden, msg)
			}
			return next(c)
		}
	}
}

// AdminOnly is RequireRole(admin).
func AdminOnly() echo.MiddlewareFunc { return RequireRole(model.RoleAdmin) }

// AdminOrInstructor is RequireRole(admin, instructor).
func AdminOrInstructor() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin, model.RoleInstructor)
}

func forbiddenMessage(roles []string) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = strings.ToUpper(r[:1]) + r[1:]
	}
	return "Access denied. " + strings.Join(names, " or ") + " privileges required."
}
