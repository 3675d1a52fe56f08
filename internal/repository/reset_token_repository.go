package repository

import (
	"context"
	"database/sql"
	"time"
)

// ResetTokenRepo persists admin password reset tokens. Only the SHA‑256
// hash of a token is stored (single 'token_hash' column).
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Replace invalidates every outstanding token of the user and stores a new
// one, so at most one reset link works at a time.
func (r *ResetTokenRepo) Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE user_id=? AND used_at IS NULL",
			userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
			userID, tokenHash, exp)
		return err
	})
}

// ResetPassword consumes a valid token and sets the owning admin's password
// hash in one transaction. Unknown, used or expired tokens, and tokens
// whose user is no longer an admin, yield ErrNotFound.
func (r *ResetTokenRepo) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			id        uint64
			userID    uint64
			expiresAt time.Time
			usedAt    sql.NullTime
		)
		err := tx.QueryRowContext(ctx,
			"SELECT id, user_id, expires_at, used_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE",
			tokenHash).Scan(&id, &userID, &expiresAt, &usedAt)
		if err != nil {
			return err
		}
		if usedAt.Valid || !now.Before(expiresAt) {
			return ErrNotFound
		}
		if err := affectedOrNotFound(tx.ExecContext(ctx,
			"UPDATE users SET password_hash=? WHERE id=? AND role='admin'", passwordHash, userID)); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE password_reset_tokens SET used_at=? WHERE id=?", now, id)
		return err
	})
}

// PurgeStale deletes tokens that expired or were used before cutoff and
// reports how many rows went away.
func (r *ResetTokenRepo) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)",
		cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
