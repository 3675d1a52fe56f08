package service

import (
	"context"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
)

// UserAdminStore is the user storage used by the back office.
type UserAdminStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetBlocked(ctx context.Context, id uint64, blocked bool) error
	Delete(ctx context.Context, id uint64) error
}

type DashboardReader interface {
	Dashboard(ctx context.Context) (model.DashboardStats, error)
}

type AdminService struct {
	users UserAdminStore
	stats DashboardReader
	log   *logger.Logger
}

func NewAdminService(users UserAdminStore, stats DashboardReader, log *logger.Logger) *AdminService {
	return &AdminService{users: users, stats: stats, log: log}
}

// ListUsers returns every user, newest first, without password hashes.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public(false)
	}
	return out, nil
}

// BlockResult is the outcome of ToggleBlock.
type BlockResult struct {
	ID        uint64 `json:"id"`
	IsBlocked bool   `json:"isBlocked"`
	Message   string `json:"-"`
}

// ToggleBlock flips the blocked flag of a user. Blocked users cannot log in
// and their existing sessions are refused by the auth middleware.
func (s *AdminService) ToggleBlock(ctx context.Context, id uint64) (BlockResult, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return BlockResult{}, orNotFound(err, msgUserNotFound)
	}
	blocked := !u.IsBlocked
	if err := s.users.SetBlocked(ctx, id, blocked); err != nil {
		return BlockResult{}, orNotFound(err, msgUserNotFound)
	}
	msg := "User unblocked"
	if blocked {
		msg = "User blocked"
	}
	s.log.Info("user block toggled", "user_id", id, "blocked", blocked)
	return BlockResult{ID: id, IsBlocked: blocked, Message: msg}, nil
}

// DeleteUser removes a user and their mutable data. Orders and
// enrollments are kept for revenue reporting.
func (s *AdminService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return orNotFound(err, msgUserNotFound)
	}
	s.log.Info("user deleted", "user_id", id)
	return nil
}

func (s *AdminService) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	return s.stats.Dashboard(ctx)
}
