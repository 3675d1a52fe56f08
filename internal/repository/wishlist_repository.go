package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/skillswap/course-marketplace/internal/model"
)

type WishlistRepo struct{ DB *sql.DB }

func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{DB: db} }

// Get loads the user's wishlist with course details. ErrNotFound means the
// user never had one.
func (r *WishlistRepo) Get(ctx context.Context, userID uint64) (*model.Wishlist, error) {
	var w model.Wishlist
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, updated_at FROM wishlists WHERE user_id=? LIMIT 1",
		userID).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT wi.course_id, wi.added_at, `+lineCourseCols+`
		 FROM wishlist_items wi
		 LEFT JOIN courses c ON c.id = wi.course_id
		 WHERE wi.wishlist_id = ?
		 ORDER BY wi.added_at, wi.course_id`, w.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	w.Items = []model.WishlistItem{}
	for rows.Next() {
		var (
			it model.WishlistItem
			nc nullCourse
		)
		if err := rows.Scan(append([]any{&it.CourseID, &it.AddedAt}, nc.dest()...)...); err != nil {
			return nil, err
		}
		it.Course = nc.summary()
		w.Items = append(w.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Contains reports whether courseID is in the user's wishlist.
func (r *WishlistRepo) Contains(ctx context.Context, userID, courseID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM wishlist_items wi JOIN wishlists w ON w.id = wi.wishlist_id
		 WHERE w.user_id=? AND wi.course_id=? LIMIT 1`, userID, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddItem saves courseID, creating the wishlist on first use. An item
// already present yields ErrDuplicate.
func (r *WishlistRepo) AddItem(ctx context.Context, userID, courseID uint64, now time.Time) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wishlists (user_id) VALUES (?) ON DUPLICATE KEY UPDATE user_id = user_id", userID); err != nil {
			return err
		}
		var id uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM wishlists WHERE user_id=? FOR UPDATE", userID).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wishlist_items (wishlist_id, course_id, added_at) VALUES (?,?,?)", id, courseID, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE wishlists SET updated_at=? WHERE id=?", now, id)
		return err
	})
}

// RemoveItem drops courseID. A missing wishlist yields ErrNotFound; a
// course that was never saved is not an error.
func (r *WishlistRepo) RemoveItem(ctx context.Context, userID, courseID uint64) error {
	var id uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT id FROM wishlists WHERE user_id=? LIMIT 1", userID).Scan(&id); err != nil {
		return translate(err)
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM wishlist_items WHERE wishlist_id=? AND course_id=?", id, courseID)
	return err
}

// Clear empties the wishlist. A missing wishlist yields ErrNotFound.
func (r *WishlistRepo) Clear(ctx context.Context, userID uint64) error {
	var id uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT id FROM wishlists WHERE user_id=? LIMIT 1", userID).Scan(&id); err != nil {
		return translate(err)
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM wishlist_items WHERE wishlist_id=?", id)
	return err
}
