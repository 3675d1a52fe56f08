package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/service"
)

type WishlistHandler struct {
	Wishlists *service.WishlistService
	Log       *logger.Logger
}

func NewWishlistHandler(s *service.WishlistService, log *logger.Logger) *WishlistHandler {
	return &WishlistHandler{Wishlists: s, Log: log}
}

type emptyWishlistJSON struct {
	State  string               `json:"state"`
	UserID uint64               `json:"user"`
	Items  []model.WishlistItem `json:"courses"`
}

type wishlistJSON struct {
	State string `json:"state"`
	*model.Wishlist
}

func wishlistBody(v service.WishlistView) interface{} {
	switch wv := v.(type) {
	case service.PopulatedWishlist:
		return wishlistJSON{State: statePopulated, Wishlist: wv.Wishlist}
	case service.EmptyWishlist:
		return emptyWishlistJSON{State: stateEmpty, UserID: wv.UserID, Items: []model.WishlistItem{}}
	}
	return nil
}

func (h *WishlistHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Wishlists.Get(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"wishlist": wishlistBody(v)})
}

func (h *WishlistHandler) Add(c echo.Context) error {
	var req courseRefReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Wishlists.Add(ctx, middleware.UserID(c), req.CourseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course added to wishlist", echo.Map{"wishlist": wishlistBody(v)})
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	courseID, valid := pathID(c, "courseId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Wishlists.Remove(ctx, middleware.UserID(c), courseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course removed from wishlist", echo.Map{"wishlist": wishlistBody(v)})
}

func (h *WishlistHandler) Clear(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Wishlists.Clear(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Wishlist cleared", echo.Map{"wishlist": wishlistBody(v)})
}

func (h *WishlistHandler) Check(c echo.Context) error {
	courseID, valid := pathID(c, "courseId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	in, err := h.Wishlists.Check(ctx, middleware.UserID(c), courseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"inWishlist": in})
}
