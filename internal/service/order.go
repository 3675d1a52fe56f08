package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/queue"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// OrderStore is the order storage used by OrderService.
type OrderStore interface {
	CreateFromCart(ctx context.Context, o *model.Order, cart *model.Cart) error
	GetForUser(ctx context.Context, id, userID uint64) (*model.Order, error)
	ListForUser(ctx context.Context, userID uint64, p repository.Page) ([]model.Order, int64, error)
	ListAll(ctx context.Context, f repository.OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint64, status, paymentStatus *string, now time.Time) (*model.Order, error)
	ConfirmPayment(ctx context.Context, id, userID uint64, paymentID, transactionID string, now time.Time) (*model.Order, error)
	Stats(ctx context.Context, monthStart time.Time) (model.OrderStats, error)
}

// CartReader loads a cart for checkout.
type CartReader interface {
	Get(ctx context.Context, userID uint64) (*model.Cart, error)
}

// OrderEvents receives committed order transitions. The queue publisher
// implements it; a nil OrderEvents disables publishing.
type OrderEvents interface {
	OrderPaid(ctx context.Context, ev queue.OrderPaidEvent) error
}

type OrderService struct {
	orders OrderStore
	carts  CartReader
	events OrderEvents
	log    *logger.Logger
	now    func() time.Time
}

func NewOrderService(orders OrderStore, carts CartReader, events OrderEvents, log *logger.Logger) *OrderService {
	return &OrderService{orders: orders, carts: carts, events: events, log: log, now: time.Now}
}

// PlaceOrderInput is the checkout form.
type PlaceOrderInput struct {
	BillingAddress model.BillingAddress
	PaymentMethod  string
	Discount       decimal.Decimal
	Notes          string
}

// Place turns the user's cart into an active, unpaid order and empties
// the cart in the same transaction.
func (s *OrderService) Place(ctx context.Context, userID uint64, in PlaceOrderInput) (*model.Order, error) {
	if in.Discount.IsNegative() {
		return nil, badRequest("Discount cannot be negative")
	}
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = model.DefaultPaymentMethod
	}
	if !model.ValidPaymentMethod(method) {
		return nil, badRequest("Invalid payment method")
	}
	if len([]rune(in.Notes)) > model.MaxNotesLen {
		return nil, badRequest("Notes cannot exceed 500 characters")
	}

	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, badRequest("Cart is empty")
	}
	if err != nil {
		return nil, err
	}
	items := model.DedupItems(model.ItemsFromCart(cart))
	if len(items) == 0 {
		return nil, badRequest("Cart has no purchasable courses")
	}

	total := model.PriceItems(items)
	// discount never exceeds the total
	discount := decimal.Min(in.Discount, total)
	o := &model.Order{
		UserID:         userID,
		Items:          items,
		TotalAmount:    total,
		Discount:       discount,
		FinalAmount:    model.FinalAmount(total, discount),
		Status:         model.OrderActive,
		PaymentStatus:  model.PaymentPending,
		PaymentMethod:  method,
		BillingAddress: in.BillingAddress,
		Notes:          strings.TrimSpace(in.Notes),
	}
	if err := s.orders.CreateFromCart(ctx, o, cart); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, conflict("Cart changed during checkout, please try again")
		}
		return nil, err
	}
	s.log.Info("order placed", "order_id", o.ID, "user_id", userID, "final_amount", o.FinalAmount.String())
	return o, nil
}

// PaymentInput identifies the order being paid and the gateway references.
type PaymentInput struct {
	OrderID       uint64
	PaymentID     string
	TransactionID string
}

// ProcessPayment confirms payment of an active order owned by userID and
// enrolls the user in its courses atomically. The order.paid event is
// published after commit on a best effort basis.
func (s *OrderService) ProcessPayment(ctx context.Context, userID uint64, in PaymentInput) (*model.Order, error) {
	o, err := s.orders.ConfirmPayment(ctx, in.OrderID, userID,
		strings.TrimSpace(in.PaymentID), strings.TrimSpace(in.TransactionID), s.now().UTC())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("Order not found or already processed")
	case errors.Is(err, repository.ErrDuplicate):
		return nil, conflict(msgAlreadyEnrolled)
	case err != nil:
		return nil, err
	}
	s.log.Info("payment confirmed", "order_id", o.ID, "user_id", userID, "courses", len(o.Items))
	s.publishPaid(ctx, o)
	return o, nil
}

func (s *OrderService) publishPaid(ctx context.Context, o *model.Order) {
	if s.events == nil {
		return
	}
	ids := make([]uint64, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.CourseID
	}
	paidAt := s.now().UTC()
	if o.CompletedAt != nil {
		paidAt = o.CompletedAt.UTC()
	}
	ev := queue.OrderPaidEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		CourseIDs:     ids,
		FinalAmount:   o.FinalAmount.String(),
		PaymentMethod: o.PaymentMethod,
		PaymentID:     o.PaymentID,
		TransactionID: o.TransactionID,
		PaidAt:        paidAt.Format(time.RFC3339),
	}
	// detached so a client disconnect does not drop the event
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.OrderPaid(pubCtx, ev); err != nil {
		s.log.Warn("order.paid publish failed", "order_id", o.ID, "error", err)
	}
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders      []model.Order
	Total       int64
	CurrentPage int
}

// ListMine pages through the caller's orders.
func (s *OrderService) ListMine(ctx context.Context, userID uint64, p repository.Page) (OrderPage, error) {
	p = p.Normalize(10)
	list, total, err := s.orders.ListForUser(ctx, userID, p)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: list, Total: total, CurrentPage: p.Page}, nil
}

// Get returns one of the caller's orders.
func (s *OrderService) Get(ctx context.Context, userID, orderID uint64) (*model.Order, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, orNotFound(err, msgOrderNotFound)
	}
	return o, nil
}

// ListAll pages through every order for the back office.
func (s *OrderService) ListAll(ctx context.Context, f repository.OrderFilter) (OrderPage, error) {
	if f.Status != "" && !model.ValidOrderStatus(f.Status) {
		return OrderPage{}, badRequest("Invalid order status")
	}
	if f.PaymentStatus != "" && !model.ValidPaymentStatus(f.PaymentStatus) {
		return OrderPage{}, badRequest("Invalid payment status")
	}
	f.Page = f.Page.Normalize(20)
	list, total, err := s.orders.ListAll(ctx, f)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: list, Total: total, CurrentPage: f.Page.Page}, nil
}

// UpdateStatus lets an admin move an order between statuses. Setting
// paymentStatus to refunded does not touch enrollments or counters.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint64, status, paymentStatus *string) (*model.Order, error) {
	if status != nil && !model.ValidOrderStatus(*status) {
		return nil, badRequest("Invalid order status")
	}
	if paymentStatus != nil && !model.ValidPaymentStatus(*paymentStatus) {
		return nil, badRequest("Invalid payment status")
	}
	o, err := s.orders.UpdateStatus(ctx, id, status, paymentStatus, s.now().UTC())
	if err != nil {
		return nil, orNotFound(err, msgOrderNotFound)
	}
	s.log.Info("order status updated", "order_id", id, "status", o.Status, "payment_status", o.PaymentStatus)
	return o, nil
}

// Stats aggregates orders. The month boundary is the first instant of the
// server's current calendar month.
func (s *OrderService) Stats(ctx context.Context) (model.OrderStats, error) {
	monthStart := now.With(s.now()).BeginningOfMonth().UTC()
	return s.orders.Stats(ctx, monthStart)
}
