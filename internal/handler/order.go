package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
	"github.com/skillswap/course-marketplace/internal/service"
)

// OrderHandler covers checkout, payment confirmation and the order views.
type OrderHandler struct {
	Orders *service.OrderService
	Log    *logger.Logger
}

func NewOrderHandler(s *service.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{Orders: s, Log: log}
}

type billingReq struct {
	Name    string `json:"name" validate:"omitempty,max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Address string `json:"address" validate:"omitempty,max=255"`
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	ZipCode string `json:"zipCode" validate:"omitempty,max=20"`
	Country string `json:"country" validate:"omitempty,max=100"`
}

type placeOrderReq struct {
	BillingAddress billingReq       `json:"billingAddress"`
	PaymentMethod  string           `json:"paymentMethod"`
	Discount       *decimal.Decimal `json:"discount"`
	Notes          string           `json:"notes"`
}

type paymentReq struct {
	OrderID       uint64 `json:"orderId" validate:"required"`
	PaymentID     string `json:"paymentId" validate:"omitempty,max=100"`
	TransactionID string `json:"transactionId" validate:"omitempty,max=100"`
}

type orderStatusReq struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

func orderPageBody(p service.OrderPage) echo.Map {
	return echo.Map{
		"count":       len(p.Orders),
		"total":       p.Total,
		"currentPage": p.CurrentPage,
		"orders":      p.Orders,
	}
}

// Place handles POST /orders. Range checks on discount, method and notes
// live in the service so every caller gets the same messages.
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.Place(ctx, middleware.UserID(c), service.PlaceOrderInput{
		BillingAddress: model.BillingAddress(req.BillingAddress),
		PaymentMethod:  req.PaymentMethod,
		Discount:       discount,
		Notes:          req.Notes,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, "Order placed successfully", echo.Map{"order": o})
}

// Payment handles POST /orders/payment.
func (h *OrderHandler) Payment(c echo.Context) error {
	var req paymentReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.ProcessPayment(ctx, middleware.UserID(c), service.PaymentInput{
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Payment processed successfully", echo.Map{"order": o})
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	p, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Orders.ListMine(ctx, middleware.UserID(c), p)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", orderPageBody(page))
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "orderId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"order": o})
}

// ListAll handles GET /orders/admin/all.
func (h *OrderHandler) ListAll(c echo.Context) error {
	var f repository.OrderFilter
	err := echo.QueryParamsBinder(c).
		Int("page", &f.Page.Page).
		Int("limit", &f.Page.Limit).
		String("status", &f.Status).
		String("paymentStatus", &f.PaymentStatus).
		BindError()
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Orders.ListAll(ctx, f)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", orderPageBody(page))
}

// UpdateStatus handles PUT /orders/:id.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.UpdateStatus(ctx, id, req.Status, req.PaymentStatus)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Order updated successfully", echo.Map{"order": o})
}

func (h *OrderHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Orders.Stats(ctx)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"stats": st})
}
