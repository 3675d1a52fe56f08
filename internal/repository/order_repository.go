package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/skillswap/course-marketplace/internal/model"
)

type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderCols = `o.id, o.user_id, o.total_amount, o.discount, o.final_amount, o.status,
	o.payment_status, o.payment_method, o.payment_id, o.transaction_id,
	o.bill_name, o.bill_email, o.bill_phone, o.bill_address, o.bill_city, o.bill_state,
	o.bill_zip, o.bill_country, o.notes, o.created_at, o.updated_at, o.completed_at`

func orderDest(o *model.Order, completedAt *sql.NullTime) []any {
	b := &o.BillingAddress
	return []any{&o.ID, &o.UserID, &o.TotalAmount, &o.Discount, &o.FinalAmount, &o.Status,
		&o.PaymentStatus, &o.PaymentMethod, &o.PaymentID, &o.TransactionID,
		&b.Name, &b.Email, &b.Phone, &b.Address, &b.City, &b.State, &b.ZipCode, &b.Country,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt, completedAt}
}

func finishOrder(o *model.Order, completedAt sql.NullTime) {
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	o.Items = []model.OrderItem{}
}

func scanOrder(s rowScanner) (model.Order, error) {
	var (
		o  model.Order
		ca sql.NullTime
	)
	if err := s.Scan(orderDest(&o, &ca)...); err != nil {
		return o, err
	}
	finishOrder(&o, ca)
	return o, nil
}

// loadItems attaches line items (with current course details) to orders.
// Items are returned in placement order and deduplicated by course id.
func loadItems(ctx context.Context, q queryer, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint64, len(orders))
	idx := make(map[uint64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
	}
	rows, err := q.QueryContext(ctx,
		`SELECT oi.order_id, oi.course_id, oi.price, `+lineCourseCols+`
		 FROM order_items oi
		 LEFT JOIN courses c ON c.id = oi.course_id
		 WHERE oi.order_id IN (`+placeholders(len(ids))+`)
		 ORDER BY oi.order_id, oi.position`, uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uint64
			it      model.OrderItem
			nc      nullCourse
		)
		if err := rows.Scan(append([]any{&orderID, &it.CourseID, &it.Price}, nc.dest()...)...); err != nil {
			return err
		}
		it.Course = nc.summary()
		if i, ok := idx[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range orders {
		orders[i].Items = model.DedupItems(orders[i].Items)
	}
	return nil
}

func getOrderForUser(ctx context.Context, q queryer, id, userID uint64) (*model.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders o WHERE o.id=? AND o.user_id=? LIMIT 1", id, userID))
	if err != nil {
		return nil, translate(err)
	}
	list := []model.Order{o}
	if err := loadItems(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CreateFromCart persists o with its items and empties cart in the same
// transaction. The cart row is locked first and its items must still be
// the ones o was priced from, otherwise nothing is written and ErrStale is
// returned. o is reloaded from the database afterwards.
func (r *OrderRepo) CreateFromCart(ctx context.Context, o *model.Order, cart *model.Cart) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := lockCartSnapshot(ctx, tx, cart); err != nil {
			return err
		}
		b := o.BillingAddress
		res, err := tx.ExecContext(ctx,
			`INSERT INTO orders (user_id, total_amount, discount, final_amount, status, payment_status,
				payment_method, bill_name, bill_email, bill_phone, bill_address, bill_city, bill_state,
				bill_zip, bill_country, notes)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			o.UserID, o.TotalAmount, o.Discount, o.FinalAmount, o.Status, o.PaymentStatus,
			o.PaymentMethod, b.Name, b.Email, b.Phone, b.Address, b.City, b.State,
			b.ZipCode, b.Country, o.Notes)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if len(o.Items) > 0 {
			query := "INSERT INTO order_items (order_id, course_id, price, position) VALUES "
			args := make([]any, 0, len(o.Items)*4)
			for i, it := range o.Items {
				if i > 0 {
					query += ","
				}
				query += "(?, ?, ?, ?)"
				args = append(args, id, it.CourseID, it.Price, i)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		if err := clearCartTx(ctx, tx, cart.ID); err != nil {
			return err
		}
		created, err := getOrderForUser(ctx, tx, uint64(id), o.UserID)
		if err != nil {
			return err
		}
		*o = *created
		return nil
	})
}

// lockCartSnapshot locks the cart row and compares the course ids of its
// items with the snapshot.
func lockCartSnapshot(ctx context.Context, tx *sql.Tx, cart *model.Cart) error {
	var id uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE id=? FOR UPDATE", cart.ID).Scan(&id); err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, "SELECT course_id FROM cart_items WHERE cart_id=?", cart.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	want := make(map[uint64]bool, len(cart.Items))
	for _, it := range cart.Items {
		want[it.CourseID] = true
	}
	n := 0
	for rows.Next() {
		var courseID uint64
		if err := rows.Scan(&courseID); err != nil {
			return err
		}
		if !want[courseID] {
			return ErrStale
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if n != len(cart.Items) {
		return ErrStale
	}
	return nil
}

// GetForUser returns the order only if userID owns it.
func (r *OrderRepo) GetForUser(ctx context.Context, id, userID uint64) (*model.Order, error) {
	return getOrderForUser(ctx, r.DB, id, userID)
}

// HasCompletedOrder reports whether userID owns a completed order id.
func (r *OrderRepo) HasCompletedOrder(ctx context.Context, id, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM orders WHERE id=? AND user_id=? AND status='completed' LIMIT 1", id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListForUser pages through the user's orders, newest first.
func (r *OrderRepo) ListForUser(ctx context.Context, userID uint64, p Page) ([]model.Order, int64, error) {
	p = p.Normalize(10)
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+orderCols+" FROM orders o WHERE o.user_id=? ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?",
		userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := loadItems(ctx, r.DB, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	Page          Page
}

// ListAll pages through every order, newest first, with owner name and
// email attached. Orders of deleted users carry no owner.
func (r *OrderRepo) ListAll(ctx context.Context, f OrderFilter) ([]model.Order, int64, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where = append(where, "o.payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize(20)
	dataSQL := "SELECT " + orderCols + `, u.id, u.name, u.email
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE ` + cond + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, dataSQL, append(append([]any{}, args...), p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.Order{}
	for rows.Next() {
		var (
			o      model.Order
			ca     sql.NullTime
			uid    sql.NullInt64
			uname  sql.NullString
			uemail sql.NullString
		)
		if err := rows.Scan(append(orderDest(&o, &ca), &uid, &uname, &uemail)...); err != nil {
			rows.Close()
			return nil, 0, err
		}
		finishOrder(&o, ca)
		if uid.Valid {
			o.User = &model.OrderUser{ID: uint64(uid.Int64), Name: uname.String, Email: uemail.String}
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := loadItems(ctx, r.DB, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus sets the order status and/or payment status. Nil leaves a
// field unchanged. completed_at is stamped on the first move to completed.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status, paymentStatus *string, now time.Time) (*model.Order, error) {
	var out *model.Order
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx,
			"SELECT "+orderCols+" FROM orders o WHERE o.id=? FOR UPDATE", id))
		if err != nil {
			return err
		}
		if status != nil {
			o.SetStatus(*status, now)
		}
		if paymentStatus != nil {
			o.PaymentStatus = *paymentStatus
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status=?, payment_status=?, completed_at=? WHERE id=?",
			o.Status, o.PaymentStatus, o.CompletedAt, o.ID); err != nil {
			return err
		}
		o.UpdatedAt = now
		list := []model.Order{o}
		if err := loadItems(ctx, tx, list); err != nil {
			return err
		}
		out = &list[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmPayment marks an active order of userID as paid and completed and
// enrolls the user in every course of the order, all in one transaction
// with the order row locked. A second confirmation of the same order finds
// it no longer active and gets ErrNotFound. An enrollment that already
// exists aborts everything with ErrDuplicate.
func (r *OrderRepo) ConfirmPayment(ctx context.Context, id, userID uint64, paymentID, transactionID string, now time.Time) (*model.Order, error) {
	var out *model.Order
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx,
			"SELECT "+orderCols+" FROM orders o WHERE o.id=? AND o.user_id=? AND o.status='active' FOR UPDATE",
			id, userID))
		if err != nil {
			return err
		}
		list := []model.Order{o}
		if err := loadItems(ctx, tx, list); err != nil {
			return err
		}
		o = list[0]

		o.PaymentStatus = model.PaymentPaid
		o.PaymentID = paymentID
		o.TransactionID = transactionID
		o.SetStatus(model.OrderCompleted, now)
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status=?, payment_status=?, payment_id=?, transaction_id=?, completed_at=?
			 WHERE id=?`,
			o.Status, o.PaymentStatus, o.PaymentID, o.TransactionID, o.CompletedAt, o.ID); err != nil {
			return err
		}
		for _, it := range o.Items {
			if _, err := enrollTx(ctx, tx, userID, it.CourseID, o.ID, now); err != nil {
				return err
			}
		}
		o.UpdatedAt = now
		out = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates order counts and revenue. Revenue counts orders that
// are paid and completed; monthly revenue additionally requires
// created_at >= monthStart.
func (r *OrderRepo) Stats(ctx context.Context, monthStart time.Time) (model.OrderStats, error) {
	var s model.OrderStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status = 'active'), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' AND payment_status = 'paid' THEN final_amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' AND payment_status = 'paid' AND created_at >= ? THEN final_amount ELSE 0 END), 0)
		 FROM orders`, monthStart).Scan(
		&s.TotalOrders, &s.CompletedOrders, &s.ActiveOrders, &s.TotalRevenue, &s.MonthlyRevenue)
	return s, err
}
