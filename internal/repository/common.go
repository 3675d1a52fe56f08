package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page into sane bounds, using def as the limit when
// none was given.
func (p Page) Normalize(def int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// nullCourse receives the LEFT JOINed course columns of a line item. All
// of them are NULL when the course has been deleted.
type nullCourse struct {
	ID          sql.NullInt64
	Name        sql.NullString
	Price       decimal.NullDecimal
	Image       sql.NullString
	Instructor  sql.NullString
	Category    sql.NullString
	Description sql.NullString
	Duration    sql.NullString
	Level       sql.NullString
}

func (n nullCourse) summary() *model.CourseSummary {
	if !n.ID.Valid {
		return nil
	}
	s := &model.CourseSummary{
		ID:          uint64(n.ID.Int64),
		Name:        n.Name.String,
		Image:       n.Image.String,
		Instructor:  n.Instructor.String,
		Category:    n.Category.String,
		Description: n.Description.String,
		Duration:    n.Duration.String,
		Level:       n.Level.String,
	}
	if n.Price.Valid {
		p := n.Price.Decimal
		s.Price = &p
	}
	return s
}

// lineCourseCols are the course columns selected next to every line item.
const lineCourseCols = `c.id, c.name, c.price, c.image, c.instructor, c.category, c.description, c.duration, c.level`

func (n *nullCourse) dest() []any {
	return []any{&n.ID, &n.Name, &n.Price, &n.Image, &n.Instructor, &n.Category, &n.Description, &n.Duration, &n.Level}
}

func uint64Args(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
