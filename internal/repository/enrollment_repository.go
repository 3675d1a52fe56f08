package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
)

type EnrollmentRepo struct{ DB *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{DB: db} }

// enrollTx inserts one enrollment, bumps the course's enrolled_count and
// records the course in the user's enrolled set. A second enrollment of
// the same (user, course) fails on the unique index with a 1062.
func enrollTx(ctx context.Context, tx *sql.Tx, userID, courseID, orderID uint64, now time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO enrollments (user_id, course_id, order_id, enrolled_at) VALUES (?,?,?,?)",
		userID, courseID, orderID, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE courses SET enrolled_count = enrolled_count + 1 WHERE id=?", courseID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO user_enrolled_courses (user_id, course_id) VALUES (?,?)", userID, courseID); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const enrollmentCols = `e.id, e.user_id, e.course_id, e.order_id, e.enrolled_at, e.progress, e.completed,
	e.completed_at, e.certificate_issued, e.certificate_issued_at`

func enrollmentDest(e *model.Enrollment, completedAt, certAt *sql.NullTime) []any {
	return []any{&e.ID, &e.UserID, &e.CourseID, &e.OrderID, &e.EnrolledAt, &e.Progress, &e.Completed,
		completedAt, &e.CertificateIssued, certAt}
}

func finishEnrollment(e *model.Enrollment, completedAt, certAt sql.NullTime) {
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}
	if certAt.Valid {
		t := certAt.Time
		e.CertificateIssuedAt = &t
	}
}

// detailed select: enrollment, course display fields and order summary.
const enrollmentDetailSQL = `SELECT ` + enrollmentCols + `, ` + lineCourseCols + `,
		o.id, o.final_amount, o.payment_status, o.created_at
	FROM enrollments e
	LEFT JOIN courses c ON c.id = e.course_id
	LEFT JOIN orders o  ON o.id = e.order_id`

func scanEnrollmentDetail(s rowScanner) (model.Enrollment, error) {
	var (
		e          model.Enrollment
		ca, certAt sql.NullTime
		nc         nullCourse
		oid        sql.NullInt64
		oFinal     decimal.NullDecimal
		oPay       sql.NullString
		oCreated   sql.NullTime
	)
	dest := enrollmentDest(&e, &ca, &certAt)
	dest = append(dest, nc.dest()...)
	dest = append(dest, &oid, &oFinal, &oPay, &oCreated)
	if err := s.Scan(dest...); err != nil {
		return e, err
	}
	finishEnrollment(&e, ca, certAt)
	e.Course = nc.summary()
	if oid.Valid {
		e.Order = &model.OrderSummary{
			ID:            uint64(oid.Int64),
			FinalAmount:   oFinal.Decimal,
			PaymentStatus: oPay.String,
			CreatedAt:     oCreated.Time,
		}
	}
	return e, nil
}

// Exists reports whether the (user, course) enrollment exists.
func (r *EnrollmentRepo) Exists(ctx context.Context, userID, courseID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM enrollments WHERE user_id=? AND course_id=? LIMIT 1", userID, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create enrolls the user directly. See enrollTx for the side effects.
func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID, orderID uint64, now time.Time) (*model.Enrollment, error) {
	var out *model.Enrollment
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := enrollTx(ctx, tx, userID, courseID, orderID, now)
		if err != nil {
			return err
		}
		e, err := scanEnrollmentDetail(tx.QueryRowContext(ctx, enrollmentDetailSQL+" WHERE e.id=?", id))
		if err != nil {
			return err
		}
		out = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetForUser returns enrollment id only if it belongs to userID.
func (r *EnrollmentRepo) GetForUser(ctx context.Context, id, userID uint64) (*model.Enrollment, error) {
	e, err := scanEnrollmentDetail(r.DB.QueryRowContext(ctx,
		enrollmentDetailSQL+" WHERE e.id=? AND e.user_id=? LIMIT 1", id, userID))
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// GetByCourse returns the user's enrollment in courseID.
func (r *EnrollmentRepo) GetByCourse(ctx context.Context, userID, courseID uint64) (*model.Enrollment, error) {
	e, err := scanEnrollmentDetail(r.DB.QueryRowContext(ctx,
		enrollmentDetailSQL+" WHERE e.user_id=? AND e.course_id=? LIMIT 1", userID, courseID))
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// ListForUser pages through the user's enrollments, newest first.
func (r *EnrollmentRepo) ListForUser(ctx context.Context, userID uint64, p Page) ([]model.Enrollment, int64, error) {
	p = p.Normalize(10)
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM enrollments WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		enrollmentDetailSQL+" WHERE e.user_id=? ORDER BY e.enrolled_at DESC, e.id DESC LIMIT ? OFFSET ?",
		userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollmentDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateProgress applies progress to the user's enrollment under a row
// lock so the completed latch and completed_at are only ever set once.
func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, id, userID uint64, progress int, now time.Time) (*model.Enrollment, error) {
	var out *model.Enrollment
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			e          model.Enrollment
			ca, certAt sql.NullTime
		)
		if err := tx.QueryRowContext(ctx,
			"SELECT "+enrollmentCols+" FROM enrollments e WHERE e.id=? AND e.user_id=? FOR UPDATE",
			id, userID).Scan(enrollmentDest(&e, &ca, &certAt)...); err != nil {
			return err
		}
		finishEnrollment(&e, ca, certAt)
		e.ApplyProgress(progress, now)
		if _, err := tx.ExecContext(ctx,
			"UPDATE enrollments SET progress=?, completed=?, completed_at=? WHERE id=?",
			e.Progress, e.Completed, e.CompletedAt, e.ID); err != nil {
			return err
		}
		full, err := scanEnrollmentDetail(tx.QueryRowContext(ctx, enrollmentDetailSQL+" WHERE e.id=?", id))
		if err != nil {
			return err
		}
		out = &full
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
