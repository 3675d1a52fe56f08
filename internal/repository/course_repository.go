package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
)

type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

const courseCols = `id, name, description, price, category, subcategory, image, instructor,
	instructor_email, duration, level, language, is_active, enrolled_count, rating, review_count,
	created_at, updated_at`

func scanCourse(s rowScanner) (model.Course, error) {
	var c model.Course
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Category, &c.Subcategory,
		&c.Image, &c.Instructor, &c.InstructorEmail, &c.Duration, &c.Level, &c.Language,
		&c.IsActive, &c.EnrolledCount, &c.Rating, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCourses(rows *sql.Rows) ([]model.Course, error) {
	defer rows.Close()
	out := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts c and reloads it so defaults and timestamps are populated.
// A name clash under the case-insensitive collation yields ErrDuplicate.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO courses (name, description, price, category, subcategory, image, instructor,
			instructor_email, duration, level, language, is_active)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.Name, c.Description, c.Price, c.Category, c.Subcategory, c.Image, c.Instructor,
		c.InstructorEmail, c.Duration, c.Level, c.Language, c.IsActive)
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
	*c = created
	return nil
}

// GetByID fetches a course regardless of its active flag.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	c, err := scanCourse(r.DB.QueryRowContext(ctx,
		"SELECT "+courseCols+" FROM courses WHERE id=? LIMIT 1", id))
	return c, translate(err)
}

// NameTaken reports whether another course (id != excludeID) already uses
// name. The column collation makes the comparison case-insensitive.
func (r *CourseRepo) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM courses WHERE name=? AND id<>? LIMIT 1", strings.TrimSpace(name), excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update writes every mutable column of c.
func (r *CourseRepo) Update(ctx context.Context, c model.Course) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx,
		`UPDATE courses SET name=?, description=?, price=?, category=?, subcategory=?, image=?,
			instructor=?, instructor_email=?, duration=?, level=?, language=?, is_active=?
		 WHERE id=?`,
		c.Name, c.Description, c.Price, c.Category, c.Subcategory, c.Image, c.Instructor,
		c.InstructorEmail, c.Duration, c.Level, c.Language, c.IsActive, c.ID))
}

// Delete removes the course from every cart and wishlist, refreshes the
// totals of the affected carts and deletes the course row. Order items and
// enrollments keep their reference.
func (r *CourseRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE id=? FOR UPDATE", id).Scan(&found); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, "SELECT cart_id FROM cart_items WHERE course_id=?", id)
		if err != nil {
			return err
		}
		var cartIDs []uint64
		for rows.Next() {
			var cid uint64
			if err := rows.Scan(&cid); err != nil {
				rows.Close()
				return err
			}
			cartIDs = append(cartIDs, cid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE course_id=?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM wishlist_items WHERE course_id=?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id=?", id); err != nil {
			return err
		}
		for _, cid := range cartIDs {
			if err := recomputeCartTotals(ctx, tx, cid); err != nil {
				return err
			}
		}
		return nil
	})
}

// CourseQuery defines filters, ordering and pagination for catalog listing.
type CourseQuery struct {
	Category    string
	Subcategory string
	Level       string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	// Search matches name, description or instructor.
	Search string
	// Text additionally matches the category field; used by the search endpoint.
	Text string
	Sort string
	Desc bool
	Page Page
}

var courseSortColumns = map[string]string{
	"createdAt":     "created_at",
	"price":         "price",
	"name":          "name",
	"enrolledCount": "enrolled_count",
	"rating":        "rating",
}

// ValidCourseSort reports whether s is an accepted sort key.
func ValidCourseSort(s string) bool {
	_, ok := courseSortColumns[s]
	return ok
}

// likeEscape escapes LIKE wildcards in user input.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// Search lists active courses matching q and reports the total match count.
func (r *CourseRepo) Search(ctx context.Context, q CourseQuery) ([]model.Course, int64, error) {
	where := []string{"is_active = 1"}
	args := []any{}

	if q.Category != "" {
		where = append(where, "FIND_IN_SET(?, REPLACE(category, ' ', '')) > 0")
		args = append(args, strings.ToLower(strings.TrimSpace(q.Category)))
	}
	if q.Subcategory != "" {
		where = append(where, "subcategory = ?")
		args = append(args, q.Subcategory)
	}
	if q.Level != "" {
		where = append(where, "level = ?")
		args = append(args, q.Level)
	}
	if q.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Search != "" {
		p := likeEscape(q.Search)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(instructor) LIKE ?)")
		args = append(args, p, p, p)
	}
	if q.Text != "" {
		p := likeEscape(q.Text)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(instructor) LIKE ? OR LOWER(category) LIKE ?)")
		args = append(args, p, p, p, p)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := courseSortColumns[q.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	page := q.Page.Normalize(12)
	dataSQL := "SELECT " + courseCols + " FROM courses WHERE " + cond +
		" ORDER BY " + col + " " + dir + ", id " + dir + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), page.Limit, page.Offset())

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanCourses(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Latest returns the n newest active courses.
func (r *CourseRepo) Latest(ctx context.Context, n int) ([]model.Course, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+courseCols+" FROM courses WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	return scanCourses(rows)
}

// Trending returns the n most enrolled active courses, newest first on ties.
func (r *CourseRepo) Trending(ctx context.Context, n int) ([]model.Course, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+courseCols+" FROM courses WHERE is_active = 1 ORDER BY enrolled_count DESC, created_at DESC, id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	return scanCourses(rows)
}
