package repository

import (
	"context"
	"database/sql"

	"github.com/skillswap/course-marketplace/internal/model"
)

type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// dashboardSQL counts every table the back office cares about. Revenue
// follows the order stats rule: paid and completed orders only.
const dashboardSQL = `SELECT
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM courses),
	(SELECT COUNT(*) FROM orders),
	(SELECT COALESCE(SUM(final_amount), 0) FROM orders WHERE status = 'completed' AND payment_status = 'paid')`

// Dashboard returns the admin landing page numbers.
func (r *StatsRepo) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	var s model.DashboardStats
	err := r.DB.QueryRowContext(ctx, dashboardSQL).Scan(&s.TotalUsers, &s.TotalCourses, &s.TotalOrders, &s.Revenue)
	return s, err
}
