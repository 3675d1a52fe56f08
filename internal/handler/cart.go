package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/service"
)

type CartHandler struct {
	Carts *service.CartService
	Log   *logger.Logger
}

func NewCartHandler(s *service.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{Carts: s, Log: log}
}

type courseRefReq struct {
	CourseID uint64 `json:"courseId" validate:"required"`
}

const (
	stateEmpty     = "empty"
	statePopulated = "populated"
)

// emptyCartJSON is what a user without a cart sees.
type emptyCartJSON struct {
	State       string           `json:"state"`
	UserID      uint64           `json:"user"`
	Items       []model.CartItem `json:"courses"`
	TotalItems  int              `json:"totalItems"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
}

type cartJSON struct {
	State string `json:"state"`
	*model.Cart
}

// cartBody renders either cart state with the same field names plus a
// "state" marker.
func cartBody(v service.CartView) interface{} {
	switch cv := v.(type) {
	case service.PopulatedCart:
		return cartJSON{State: statePopulated, Cart: cv.Cart}
	case service.EmptyCart:
		return emptyCartJSON{State: stateEmpty, UserID: cv.UserID, Items: []model.CartItem{}, TotalAmount: decimal.Zero}
	}
	return nil
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Carts.Get(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"cart": cartBody(v)})
}

func (h *CartHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Carts.Count(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"count": n})
}

func (h *CartHandler) Add(c echo.Context) error {
	var req courseRefReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Carts.Add(ctx, middleware.UserID(c), req.CourseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course added to cart", echo.Map{"cart": cartBody(v)})
}

func (h *CartHandler) Remove(c echo.Context) error {
	courseID, valid := pathID(c, "courseId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Carts.Remove(ctx, middleware.UserID(c), courseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course removed from cart", echo.Map{"cart": cartBody(v)})
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Carts.Clear(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Cart cleared", echo.Map{"cart": cartBody(v)})
}
