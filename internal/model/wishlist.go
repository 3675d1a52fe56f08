package model

import "time"

// WishlistItem is one saved course.
type WishlistItem struct {
	CourseID uint64         `json:"courseId"`
	AddedAt  time.Time      `json:"addedAt"`
	Course   *CourseSummary `json:"course,omitempty"`
}

// Wishlist mirrors the `wishlists` table plus its `wishlist_items` rows.
// One per user, no pricing.
type Wishlist struct {
	ID        uint64         `json:"id"`
	UserID    uint64         `json:"user"`
	Items     []WishlistItem `json:"courses"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Contains reports whether courseID is saved in w.
func (w *Wishlist) Contains(courseID uint64) bool {
	if w == nil {
		return false
	}
	for _, it := range w.Items {
		if it.CourseID == courseID {
			return true
		}
	}
	return false
}
