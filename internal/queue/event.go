// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

// OrderPaidQueue is the durable queue order payment events are sent to.
const OrderPaidQueue = "order.paid"

// OrderPaidEvent is published once a payment has been confirmed and the
// enrollments were committed. It carries enough information for
// downstream consumers to log, notify or feed analytics without querying
// the primary database.
type OrderPaidEvent struct {
	OrderID       uint64   `json:"order_id"`
	UserID        uint64   `json:"user_id"`
	CourseIDs     []uint64 `json:"course_ids"`
	FinalAmount   string   `json:"final_amount"`
	PaymentMethod string   `json:"payment_method"`
	PaymentID     string   `json:"payment_id,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	PaidAt        string   `json:"paid_at"`
}
