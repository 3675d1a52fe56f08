package router

import (
	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/middleware"
)

// RegisterCustomer registers the per-user shopping and learning endpoints.
// Every route requires a valid session; ownership is enforced in the
// services by always scoping queries to the caller.
func RegisterCustomer(api *echo.Group, h Handlers, auth echo.MiddlewareFunc) {
	cart := api.Group("/cart", auth)
	cart.GET("", h.Carts.Get)
	cart.GET("/count", h.Carts.Count)
	cart.POST("", h.Carts.Add)
	cart.DELETE("/:courseId", h.Carts.Remove)
	cart.DELETE("", h.Carts.Clear)

	orders := api.Group("/orders", auth)
	orders.POST("", h.Orders.Place)
	orders.POST("/payment", h.Orders.Payment)
	orders.GET("", h.Orders.ListMine)
	// stats and admin/all must be registered ahead of /:orderId.
	orders.GET("/stats", h.Orders.Stats, middleware.AdminOnly())
	orders.GET("/admin/all", h.Orders.ListAll, middleware.AdminOnly())
	orders.GET("/:orderId", h.Orders.Get)
	orders.PUT("/:id", h.Orders.UpdateStatus, middleware.AdminOnly())

	enroll := api.Group("/enrollments", auth)
	enroll.POST("", h.Enrollments.Enroll)
	enroll.GET("", h.Enrollments.List)
	enroll.GET("/check/:courseId", h.Enrollments.Check)
	enroll.GET("/:enrollmentId", h.Enrollments.Get)
	enroll.PUT("/:enrollmentId/progress", h.Enrollments.Progress)

	wish := api.Group("/wishlist", auth)
	wish.GET("", h.Wishlists.Get)
	wish.POST("", h.Wishlists.Add)
	wish.DELETE("/:courseId", h.Wishlists.Remove)
	wish.DELETE("", h.Wishlists.Clear)
	wish.GET("/check/:courseId", h.Wishlists.Check)
}
