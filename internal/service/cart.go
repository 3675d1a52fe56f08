package service

import (
	"context"
	"errors"
	"time"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// CartStore is the cart storage used by CartService.
type CartStore interface {
	Get(ctx context.Context, userID uint64) (*model.Cart, error)
	Count(ctx context.Context, userID uint64) (int, error)
	AddItem(ctx context.Context, userID, courseID uint64, now time.Time) error
	RemoveItem(ctx context.Context, userID, courseID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

// EnrollmentChecker answers whether a user already holds a course.
type EnrollmentChecker interface {
	Exists(ctx context.Context, userID, courseID uint64) (bool, error)
}

// CartView is what reading a cart yields: EmptyCart when the user never
// had one, PopulatedCart when a cart row exists (it may hold no items).
type CartView interface {
	isCartView()
}

type EmptyCart struct {
	UserID uint64
}

type PopulatedCart struct {
	Cart *model.Cart
}

func (EmptyCart) isCartView()     {}
func (PopulatedCart) isCartView() {}

type CartService struct {
	carts       CartStore
	courses     CourseGetter
	enrollments EnrollmentChecker
	log         *logger.Logger
	now         func() time.Time
}

func NewCartService(carts CartStore, courses CourseGetter, enrollments EnrollmentChecker, log *logger.Logger) *CartService {
	return &CartService{carts: carts, courses: courses, enrollments: enrollments, log: log, now: time.Now}
}

// Get returns the user's cart.
func (s *CartService) Get(ctx context.Context, userID uint64) (CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return EmptyCart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return PopulatedCart{Cart: c}, nil
}

// Count returns the number of items in the cart, 0 when there is none.
func (s *CartService) Count(ctx context.Context, userID uint64) (int, error) {
	return s.carts.Count(ctx, userID)
}

// Add puts courseID in the cart. Courses the user is enrolled in and
// courses already in the cart are rejected.
func (s *CartService) Add(ctx context.Context, userID, courseID uint64) (PopulatedCart, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return PopulatedCart{}, orNotFound(err, msgCourseNotFound)
	}
	enrolled, err := s.enrollments.Exists(ctx, userID, courseID)
	if err != nil {
		return PopulatedCart{}, err
	}
	if enrolled {
		return PopulatedCart{}, conflict(msgAlreadyEnrolled)
	}
	current, err := s.carts.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return PopulatedCart{}, err
	}
	if current.Contains(courseID) {
		return PopulatedCart{}, conflict("Course is already in your cart")
	}
	if err := s.carts.AddItem(ctx, userID, courseID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return PopulatedCart{}, conflict("Course is already in your cart")
		}
		return PopulatedCart{}, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return PopulatedCart{}, err
	}
	return PopulatedCart{Cart: c}, nil
}

// Remove drops courseID from the cart. It never fails for a course that is
// not in the cart, nor for a user without a cart.
func (s *CartService) Remove(ctx context.Context, userID, courseID uint64) (CartView, error) {
	if err := s.carts.RemoveItem(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return EmptyCart{UserID: userID}, nil
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID uint64) (CartView, error) {
	if err := s.carts.Clear(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return EmptyCart{UserID: userID}, nil
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}
