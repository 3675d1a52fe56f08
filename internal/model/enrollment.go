package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSummary is the order view embedded in an enrollment.
type OrderSummary struct {
	ID            uint64          `json:"id"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Enrollment mirrors the `enrollments` table. (UserID, CourseID) is unique.
// Completed is a one-way latch: once progress reaches 100 it stays set even
// if progress is later lowered.
type Enrollment struct {
	ID                  uint64         `json:"id"`
	UserID              uint64         `json:"userId"`
	CourseID            uint64         `json:"courseId"`
	OrderID             uint64         `json:"orderId"`
	EnrolledAt          time.Time      `json:"enrolledAt"`
	Progress            int            `json:"progress"`
	Completed           bool           `json:"completed"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
	CertificateIssued   bool           `json:"certificateIssued"`
	CertificateIssuedAt *time.Time     `json:"certificateIssuedAt,omitempty"`
	Course              *CourseSummary `json:"course,omitempty"`
	Order               *OrderSummary  `json:"order,omitempty"`
}

// ValidProgress reports whether p is a percentage in [0, 100].
func ValidProgress(p int) bool { return p >= 0 && p <= 100 }

// ApplyProgress records progress p. Reaching exactly 100 marks the
// enrollment completed and stamps CompletedAt once.
func (e *Enrollment) ApplyProgress(p int, now time.Time) {
	e.Progress = p
	if p == 100 {
		e.Completed = true
		if e.CompletedAt == nil {
			t := now
			e.CompletedAt = &t
		}
	}
}
