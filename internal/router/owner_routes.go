package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/middleware" // session + role middlewares
)

// RegisterAdmin registers the back office endpoints under /api/admin.
// All routes require a valid session and the admin role.
func RegisterAdmin(api *echo.Group, h Handlers, auth echo.MiddlewareFunc) {
	// Attach middlewares at group construction time for clarity.
	g := api.Group("/admin", auth, middleware.AdminOnly())

	// ---- Users ----
	g.GET("/users", h.Admin.ListUsers)
	g.PUT("/users/:id/block", h.Admin.ToggleBlock)
	g.DELETE("/users/:id", h.Admin.DeleteUser)

	// ---- Dashboard ----
	g.GET("/stats", h.Admin.Stats)
}
