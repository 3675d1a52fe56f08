package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle. An order is created active and becomes completed once
// payment is confirmed.
const (
	OrderActive    = "active"
	OrderCompleted = "completed"
)

// Payment states, orthogonal to the order status.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// DefaultPaymentMethod is used when the client does not pick one.
const DefaultPaymentMethod = "card"

// MaxNotesLen bounds the free-text notes on an order.
const MaxNotesLen = 500

func ValidOrderStatus(s string) bool { return s == OrderActive || s == OrderCompleted }

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func ValidPaymentMethod(s string) bool {
	switch s {
	case "card", "upi", "netbanking", "wallet", "cash":
		return true
	}
	return false
}

// BillingAddress is captured at checkout and stored with the order.
type BillingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// OrderItem is a priced line item. Price is the course price at the time the
// order was placed and never changes afterwards.
type OrderItem struct {
	CourseID uint64          `json:"courseId"`
	Price    decimal.Decimal `json:"price"`
	Course   *CourseSummary  `json:"course,omitempty"`
}

// OrderUser is the owner summary attached to orders in admin listings.
type OrderUser struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order mirrors the `orders` table plus its `order_items` rows.
type Order struct {
	ID             uint64          `json:"id"`
	UserID         uint64          `json:"userId"`
	User           *OrderUser      `json:"user,omitempty"`
	Items          []OrderItem     `json:"courses"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Discount       decimal.Decimal `json:"discount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentID      string          `json:"paymentId,omitempty"`
	TransactionID  string          `json:"transactionId,omitempty"`
	BillingAddress BillingAddress  `json:"billingAddress"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// DedupItems drops every item whose course id already appeared earlier in
// the slice. The first occurrence wins and input order is preserved.
func DedupItems(items []OrderItem) []OrderItem {
	seen := make(map[uint64]struct{}, len(items))
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.CourseID]; ok {
			continue
		}
		seen[it.CourseID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// FinalAmount returns max(0, total - discount).
func FinalAmount(total, discount decimal.Decimal) decimal.Decimal {
	f := total.Sub(discount)
	if f.IsNegative() {
		return decimal.Zero
	}
	return f
}

// PriceItems sums the line prices of items.
func PriceItems(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price)
	}
	return sum
}

// ItemsFromCart snapshots the current prices of the cart's items. Items
// whose course no longer exists cannot be priced and are skipped.
func ItemsFromCart(c *Cart) []OrderItem {
	if c == nil {
		return nil
	}
	out := make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Course == nil || it.Course.Price == nil {
			continue
		}
		out = append(out, OrderItem{CourseID: it.CourseID, Price: *it.Course.Price})
	}
	return out
}

// SetStatus moves the order to status s. CompletedAt is stamped the first
// time the order becomes completed and is never overwritten.
func (o *Order) SetStatus(s string, now time.Time) {
	o.Status = s
	if s == OrderCompleted && o.CompletedAt == nil {
		t := now
		o.CompletedAt = &t
	}
}

// OrderStats aggregates order counts and revenue. Revenue only counts
// orders that are both paid and completed.
type OrderStats struct {
	TotalOrders     int64           `json:"totalOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	ActiveOrders    int64           `json:"activeOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	MonthlyRevenue  decimal.Decimal `json:"monthlyRevenue"`
}

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	TotalUsers   int64           `json:"totalUsers"`
	TotalCourses int64           `json:"totalCourses"`
	TotalOrders  int64           `json:"totalOrders"`
	Revenue      decimal.Decimal `json:"revenue"`
}
