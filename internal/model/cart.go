package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one course in a cart. Course is populated when the cart is
// read back for display and is nil if the course has since been deleted.
type CartItem struct {
	CourseID uint64         `json:"courseId"`
	AddedAt  time.Time      `json:"addedAt"`
	Course   *CourseSummary `json:"course,omitempty"`
}

// Cart mirrors the `carts` table plus its `cart_items` rows. There is at
// most one cart per user. TotalItems and TotalAmount are denormalized and
// recomputed from the current course prices on every mutation.
type Cart struct {
	ID          uint64          `json:"id"`
	UserID      uint64          `json:"user"`
	Items       []CartItem      `json:"courses"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Contains reports whether courseID is already a line item.
func (c *Cart) Contains(courseID uint64) bool {
	if c == nil {
		return false
	}
	for _, it := range c.Items {
		if it.CourseID == courseID {
			return true
		}
	}
	return false
}

// CartTotals derives the denormalized totals from the current prices of the
// items in a cart. A nil price stands for a course that no longer exists and
// contributes nothing to the amount, but the item still counts.
func CartTotals(prices []*decimal.Decimal) (int, decimal.Decimal) {
	sum := decimal.Zero
	for _, p := range prices {
		if p != nil {
			sum = sum.Add(*p)
		}
	}
	return len(prices), sum
}
