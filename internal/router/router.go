package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/skillswap/course-marketplace/internal/handler"    // handlers that implement each endpoint
	"github.com/skillswap/course-marketplace/internal/logger"     // shared structured logger
	"github.com/skillswap/course-marketplace/internal/middleware" // session authentication and role enforcement
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Auth        *handler.AuthHandler
	Courses     *handler.CourseHandler
	Carts       *handler.CartHandler
	Orders      *handler.OrderHandler
	Enrollments *handler.EnrollmentHandler
	Wishlists   *handler.WishlistHandler
	Admin       *handler.AdminHandler
}

// Register mounts the health probe at the root and everything else under
// /api. authn resolves the session token for protected groups.
func Register(e *echo.Echo, h Handlers, authn middleware.Authenticator, log *logger.Logger) {
	RegisterRoutes(e)

	api := e.Group("/api")
	auth := middleware.JWTAuth(authn, log)

	RegisterAuth(api, h.Auth, auth)
	RegisterCourses(api, h.Courses, auth)
	RegisterCustomer(api, h, auth)
	RegisterAdmin(api, h, auth)
}

// RegisterRoutes registers routes that do not require authentication and
// live outside /api. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Register,
// login, logout and the admin reset flow are public; logout revokes the
// session itself when one is presented.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/logout", a.Logout)
	g.POST("/logout", a.Logout)
	g.POST("/admin/request-password-reset", a.RequestAdminReset)
	g.POST("/admin/reset-password/:token", a.ResetAdminPassword)

	g.GET("/me", a.Me, auth)
	g.PUT("/profile", a.UpdateProfile, auth)
	g.GET("/admin/me", a.Me, auth, middleware.AdminOnly())
}

// RegisterCourses exposes the public catalog and the management endpoints.
// Admins and instructors create and edit; only admins delete. Static
// segments are registered before /:id.
func RegisterCourses(api *echo.Group, h *handler.CourseHandler, auth echo.MiddlewareFunc) {
	g := api.Group("/courses")
	g.GET("", h.List)
	g.GET("/latest", h.Latest)
	g.GET("/trending", h.Trending)
	g.GET("/search", h.Search)
	g.GET("/category/:category", h.ByCategory)
	g.GET("/:id", h.Get)

	manage := middleware.AdminOrInstructor()
	g.POST("", h.Create, auth, manage)
	g.PUT("/:id", h.Update, auth, manage)
	g.DELETE("/:id", h.Delete, auth, middleware.AdminOnly())
}
