package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/skillswap/course-marketplace/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, name, email, password_hash, role, is_blocked, avatar, bio, phone,
	addr_street, addr_city, addr_state, addr_zip, addr_country, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	a := &u.Profile.Address
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsBlocked,
		&u.Profile.Avatar, &u.Profile.Bio, &u.Profile.Phone,
		&a.Street, &a.City, &a.State, &a.ZipCode, &a.Country, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and fills in its ID and timestamps. A taken email
// yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, avatar) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.Role, u.Profile.Avatar)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)))
	return u, translate(err)
}

// GetAdminByEmail is GetByEmail restricted to admin accounts.
func (r *UserRepo) GetAdminByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? AND role='admin' LIMIT 1", NormalizeEmail(email)))
	return u, translate(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
	return u, translate(err)
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile stores the name and profile of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User) error {
	a := u.Profile.Address
	return affectedOrNotFound(r.DB.ExecContext(ctx,
		`UPDATE users SET name=?, avatar=?, bio=?, phone=?,
			addr_street=?, addr_city=?, addr_state=?, addr_zip=?, addr_country=?
		 WHERE id=?`,
		u.Name, u.Profile.Avatar, u.Profile.Bio, u.Profile.Phone,
		a.Street, a.City, a.State, a.ZipCode, a.Country, u.ID))
}

// SetBlocked sets the block flag.
func (r *UserRepo) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx,
		"UPDATE users SET is_blocked=? WHERE id=?", blocked, id))
}

// Delete removes the user together with the aggregates only that user
// owns: cart, wishlist, reset tokens and the enrolled-course set. Orders
// and enrollments are kept for reporting.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&exists); err != nil {
			return err
		}
		stmts := []string{
			"DELETE ci FROM cart_items ci JOIN carts ct ON ct.id = ci.cart_id WHERE ct.user_id = ?",
			"DELETE FROM carts WHERE user_id = ?",
			"DELETE wi FROM wishlist_items wi JOIN wishlists w ON w.id = wi.wishlist_id WHERE w.user_id = ?",
			"DELETE FROM wishlists WHERE user_id = ?",
			"DELETE FROM password_reset_tokens WHERE user_id = ?",
			"DELETE FROM user_enrolled_courses WHERE user_id = ?",
			"DELETE FROM users WHERE id = ?",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnrolledCourseIDs returns the user's enrolled-course set.
func (r *UserRepo) EnrolledCourseIDs(ctx context.Context, id uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT course_id FROM user_enrolled_courses WHERE user_id=? ORDER BY course_id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []uint64{}
	for rows.Next() {
		var cid uint64
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		out = append(out, cid)
	}
	return out, rows.Err()
}
