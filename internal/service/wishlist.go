package service

import (
	"context"
	"errors"
	"time"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// WishlistStore is the wishlist storage used by WishlistService.
type WishlistStore interface {
	Get(ctx context.Context, userID uint64) (*model.Wishlist, error)
	Contains(ctx context.Context, userID, courseID uint64) (bool, error)
	AddItem(ctx context.Context, userID, courseID uint64, now time.Time) error
	RemoveItem(ctx context.Context, userID, courseID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

// WishlistView mirrors CartView.
type WishlistView interface {
	isWishlistView()
}

type EmptyWishlist struct {
	UserID uint64
}

type PopulatedWishlist struct {
	Wishlist *model.Wishlist
}

func (EmptyWishlist) isWishlistView()     {}
func (PopulatedWishlist) isWishlistView() {}

const msgInWishlist = "Course is already in your wishlist"

type WishlistService struct {
	wishlists WishlistStore
	courses   CourseGetter
	log       *logger.Logger
	now       func() time.Time
}

func NewWishlistService(wishlists WishlistStore, courses CourseGetter, log *logger.Logger) *WishlistService {
	return &WishlistService{wishlists: wishlists, courses: courses, log: log, now: time.Now}
}

func (s *WishlistService) Get(ctx context.Context, userID uint64) (WishlistView, error) {
	w, err := s.wishlists.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return EmptyWishlist{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return PopulatedWishlist{Wishlist: w}, nil
}

// Add saves courseID to the wishlist, creating it on first use.
func (s *WishlistService) Add(ctx context.Context, userID, courseID uint64) (PopulatedWishlist, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return PopulatedWishlist{}, orNotFound(err, msgCourseNotFound)
	}
	in, err := s.wishlists.Contains(ctx, userID, courseID)
	if err != nil {
		return PopulatedWishlist{}, err
	}
	if in {
		return PopulatedWishlist{}, conflict(msgInWishlist)
	}
	if err := s.wishlists.AddItem(ctx, userID, courseID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return PopulatedWishlist{}, conflict(msgInWishlist)
		}
		return PopulatedWishlist{}, err
	}
	w, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return PopulatedWishlist{}, err
	}
	return PopulatedWishlist{Wishlist: w}, nil
}

// Remove is idempotent.
func (s *WishlistService) Remove(ctx context.Context, userID, courseID uint64) (WishlistView, error) {
	if err := s.wishlists.RemoveItem(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return EmptyWishlist{UserID: userID}, nil
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *WishlistService) Clear(ctx context.Context, userID uint64) (WishlistView, error) {
	if err := s.wishlists.Clear(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return EmptyWishlist{UserID: userID}, nil
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *WishlistService) Check(ctx context.Context, userID, courseID uint64) (bool, error) {
	return s.wishlists.Contains(ctx, userID, courseID)
}
