package service

import (
	"context"
	"errors"
	"time"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// EnrollmentStore is the enrollment storage used by EnrollmentService.
type EnrollmentStore interface {
	EnrollmentChecker
	Create(ctx context.Context, userID, courseID, orderID uint64, now time.Time) (*model.Enrollment, error)
	GetForUser(ctx context.Context, id, userID uint64) (*model.Enrollment, error)
	GetByCourse(ctx context.Context, userID, courseID uint64) (*model.Enrollment, error)
	ListForUser(ctx context.Context, userID uint64, p repository.Page) ([]model.Enrollment, int64, error)
	UpdateProgress(ctx context.Context, id, userID uint64, progress int, now time.Time) (*model.Enrollment, error)
}

// CompletedOrderChecker verifies that an order backs a direct enrollment.
type CompletedOrderChecker interface {
	HasCompletedOrder(ctx context.Context, id, userID uint64) (bool, error)
}

type EnrollmentService struct {
	enrollments EnrollmentStore
	courses     CourseGetter
	orders      CompletedOrderChecker
	log         *logger.Logger
	now         func() time.Time
}

func NewEnrollmentService(enrollments EnrollmentStore, courses CourseGetter, orders CompletedOrderChecker, log *logger.Logger) *EnrollmentService {
	return &EnrollmentService{enrollments: enrollments, courses: courses, orders: orders, log: log, now: time.Now}
}

// Enroll creates an enrollment backed by one of the user's completed
// orders. Of two concurrent calls for the same course exactly one wins;
// the other gets a Conflict from the unique key.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID, orderID uint64) (*model.Enrollment, error) {
	exists, err := s.enrollments.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict(msgAlreadyEnrolled)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, orNotFound(err, msgCourseNotFound)
	}
	ok, err := s.orders.HasCompletedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("Invalid order or order not completed")
	}

	e, err := s.enrollments.Create(ctx, userID, courseID, orderID, s.now().UTC())
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, conflict(msgAlreadyEnrolled)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("user enrolled", "user_id", userID, "course_id", courseID, "order_id", orderID)
	return e, nil
}

// EnrollmentPage is one page of the caller's enrollments.
type EnrollmentPage struct {
	Enrollments []model.Enrollment
	Total       int64
	CurrentPage int
}

func (s *EnrollmentService) ListMine(ctx context.Context, userID uint64, p repository.Page) (EnrollmentPage, error) {
	p = p.Normalize(10)
	list, total, err := s.enrollments.ListForUser(ctx, userID, p)
	if err != nil {
		return EnrollmentPage{}, err
	}
	return EnrollmentPage{Enrollments: list, Total: total, CurrentPage: p.Page}, nil
}

func (s *EnrollmentService) Get(ctx context.Context, userID, id uint64) (*model.Enrollment, error) {
	e, err := s.enrollments.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, orNotFound(err, msgEnrollmentAbsent)
	}
	return e, nil
}

// UpdateProgress sets progress on one of the caller's enrollments.
// Reaching 100 completes the enrollment for good.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, userID, id uint64, progress int) (*model.Enrollment, error) {
	if !model.ValidProgress(progress) {
		return nil, badRequest("Progress must be between 0 and 100")
	}
	e, err := s.enrollments.UpdateProgress(ctx, id, userID, progress, s.now().UTC())
	if err != nil {
		return nil, orNotFound(err, msgEnrollmentAbsent)
	}
	return e, nil
}

// EnrollmentCheck answers the "am I enrolled" query for a course page.
type EnrollmentCheck struct {
	IsEnrolled bool              `json:"isEnrolled"`
	Enrollment *model.Enrollment `json:"enrollment,omitempty"`
}

func (s *EnrollmentService) Check(ctx context.Context, userID, courseID uint64) (EnrollmentCheck, error) {
	e, err := s.enrollments.GetByCourse(ctx, userID, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return EnrollmentCheck{}, nil
	}
	if err != nil {
		return EnrollmentCheck{}, err
	}
	return EnrollmentCheck{IsEnrolled: true, Enrollment: e}, nil
}
