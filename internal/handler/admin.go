package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/service"
)

// AdminHandler serves the back office user management and dashboard.
type AdminHandler struct {
	Admin *service.AdminService
	Log   *logger.Logger
}

func NewAdminHandler(s *service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{Admin: s, Log: log}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Admin.ListUsers(ctx)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"count": len(users), "users": users})
}

// ToggleBlock handles PUT /admin/users/:id/block.
func (h *AdminHandler) ToggleBlock(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Admin.ToggleBlock(ctx, id)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, res.Message, echo.Map{"user": res})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.DeleteUser(ctx, id); err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "User deleted", nil)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Admin.Dashboard(ctx)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"stats": st})
}
