package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
)

type CartRepo struct{ DB *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{DB: db} }

// Get loads the user's cart with its items and their current course
// details. ErrNotFound means the user never had a cart.
func (r *CartRepo) Get(ctx context.Context, userID uint64) (*model.Cart, error) {
	return getCart(ctx, r.DB, userID)
}

func getCart(ctx context.Context, q queryer, userID uint64) (*model.Cart, error) {
	var c model.Cart
	err := q.QueryRowContext(ctx,
		"SELECT id, user_id, total_items, total_amount, created_at, updated_at FROM carts WHERE user_id=? LIMIT 1",
		userID).Scan(&c.ID, &c.UserID, &c.TotalItems, &c.TotalAmount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	rows, err := q.QueryContext(ctx,
		`SELECT ci.course_id, ci.added_at, `+lineCourseCols+`
		 FROM cart_items ci
		 LEFT JOIN courses c ON c.id = ci.course_id
		 WHERE ci.cart_id = ?
		 ORDER BY ci.added_at, ci.course_id`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	c.Items = []model.CartItem{}
	for rows.Next() {
		var (
			it model.CartItem
			nc nullCourse
		)
		if err := rows.Scan(append([]any{&it.CourseID, &it.AddedAt}, nc.dest()...)...); err != nil {
			return nil, err
		}
		it.Course = nc.summary()
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Count returns the denormalized item count, 0 when there is no cart.
func (r *CartRepo) Count(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT total_items FROM carts WHERE user_id=? LIMIT 1", userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// AddItem appends courseID to the user's cart, creating the cart on first
// use, and refreshes the totals. An item already present yields
// ErrDuplicate.
func (r *CartRepo) AddItem(ctx context.Context, userID, courseID uint64, now time.Time) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO carts (user_id) VALUES (?) ON DUPLICATE KEY UPDATE user_id = user_id", userID); err != nil {
			return err
		}
		var cartID uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id=? FOR UPDATE", userID).Scan(&cartID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cart_items (cart_id, course_id, added_at) VALUES (?,?,?)", cartID, courseID, now); err != nil {
			return err
		}
		return recomputeCartTotals(ctx, tx, cartID)
	})
}

// RemoveItem drops courseID from the cart. Removing a course that is not
// in the cart is not an error; a missing cart yields ErrNotFound.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, courseID uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var cartID uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id=? FOR UPDATE", userID).Scan(&cartID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE cart_id=? AND course_id=?", cartID, courseID); err != nil {
			return err
		}
		return recomputeCartTotals(ctx, tx, cartID)
	})
}

// Clear empties the cart. A missing cart yields ErrNotFound.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var cartID uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id=? FOR UPDATE", userID).Scan(&cartID); err != nil {
			return err
		}
		return clearCartTx(ctx, tx, cartID)
	})
}

func clearCartTx(ctx context.Context, tx *sql.Tx, cartID uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id=?", cartID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE carts SET total_items=0, total_amount=0, updated_at=UTC_TIMESTAMP() WHERE id=?", cartID)
	return err
}

// recomputeCartTotals derives totalItems and totalAmount from the current
// prices of the cart's courses.
func recomputeCartTotals(ctx context.Context, q queryer, cartID uint64) error {
	rows, err := q.QueryContext(ctx,
		`SELECT c.price FROM cart_items ci LEFT JOIN courses c ON c.id = ci.course_id WHERE ci.cart_id = ?`, cartID)
	if err != nil {
		return err
	}
	var prices []*decimal.Decimal
	for rows.Next() {
		var p decimal.NullDecimal
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		if p.Valid {
			v := p.Decimal
			prices = append(prices, &v)
		} else {
			prices = append(prices, nil)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	items, amount := model.CartTotals(prices)
	_, err = q.ExecContext(ctx,
		"UPDATE carts SET total_items=?, total_amount=?, updated_at=UTC_TIMESTAMP() WHERE id=?", items, amount, cartID)
	return err
}
