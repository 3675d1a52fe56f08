package service

import (
	"context"
	"errors"
	"strings"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// CourseGetter is the catalog lookup shared by several services.
type CourseGetter interface {
	GetByID(ctx context.Context, id uint64) (model.Course, error)
}

// CourseStore is the catalog storage used by CourseService.
type CourseStore interface {
	CourseGetter
	Create(ctx context.Context, c *model.Course) error
	NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)
	Update(ctx context.Context, c model.Course) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, q repository.CourseQuery) ([]model.Course, int64, error)
	Latest(ctx context.Context, n int) ([]model.Course, error)
	Trending(ctx context.Context, n int) ([]model.Course, error)
}

// homePageSize is how many courses the latest and trending rails show.
const homePageSize = 6

const msgCourseNameTaken = "Course with this name already exists"

type CourseService struct {
	courses CourseStore
	log     *logger.Logger
}

func NewCourseService(courses CourseStore, log *logger.Logger) *CourseService {
	return &CourseService{courses: courses, log: log}
}

// CoursePage is one page of a catalog listing.
type CoursePage struct {
	Courses     []model.Course
	Total       int64
	TotalPages  int64
	CurrentPage int
}

func newCoursePage(list []model.Course, total int64, p repository.Page) CoursePage {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return CoursePage{Courses: list, Total: total, TotalPages: pages, CurrentPage: p.Page}
}

// List runs a filtered catalog query over active courses.
func (s *CourseService) List(ctx context.Context, q repository.CourseQuery) (CoursePage, error) {
	if q.Sort != "" && !repository.ValidCourseSort(q.Sort) {
		return CoursePage{}, badRequest("Invalid sort field")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return CoursePage{}, badRequest("minPrice cannot exceed maxPrice")
	}
	q.Page = q.Page.Normalize(12)
	list, total, err := s.courses.Search(ctx, q)
	if err != nil {
		return CoursePage{}, err
	}
	return newCoursePage(list, total, q.Page), nil
}

// ByCategory lists active courses tagged with category, newest first.
func (s *CourseService) ByCategory(ctx context.Context, category string, p repository.Page) (CoursePage, error) {
	return s.List(ctx, repository.CourseQuery{Category: category, Sort: "createdAt", Desc: true, Page: p})
}

// SearchText matches q against name, description, instructor and category.
func (s *CourseService) SearchText(ctx context.Context, q string, p repository.Page) (CoursePage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return CoursePage{}, badRequest("Search query is required")
	}
	return s.List(ctx, repository.CourseQuery{Text: q, Sort: "createdAt", Desc: true, Page: p})
}

func (s *CourseService) Latest(ctx context.Context) ([]model.Course, error) {
	return s.courses.Latest(ctx, homePageSize)
}

func (s *CourseService) Trending(ctx context.Context) ([]model.Course, error) {
	return s.courses.Trending(ctx, homePageSize)
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id uint64) (model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	return c, orNotFound(err, msgCourseNotFound)
}

// Create adds a course. Names are unique ignoring case.
func (s *CourseService) Create(ctx context.Context, c model.Course) (model.Course, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.InstructorEmail = strings.ToLower(strings.TrimSpace(c.InstructorEmail))
	if c.Level == "" {
		c.Level = model.LevelBeginner
	}
	if c.Language == "" {
		c.Language = "English"
	}
	if err := s.checkName(ctx, c.Name, 0); err != nil {
		return model.Course{}, err
	}
	if err := s.courses.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Course{}, conflict(msgCourseNameTaken)
		}
		return model.Course{}, err
	}
	s.log.Info("course created", "course_id", c.ID)
	return c, nil
}

// Update applies a partial update.
func (s *CourseService) Update(ctx context.Context, id uint64, p model.CoursePatch) (model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return model.Course{}, orNotFound(err, msgCourseNotFound)
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
		if !strings.EqualFold(name, c.Name) {
			if err := s.checkName(ctx, name, id); err != nil {
				return model.Course{}, err
			}
		}
	}
	p.Apply(&c)
	if err := s.courses.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Course{}, conflict(msgCourseNameTaken)
		}
		return model.Course{}, orNotFound(err, msgCourseNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes a course and its cart and wishlist entries.
func (s *CourseService) Delete(ctx context.Context, id uint64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return orNotFound(err, msgCourseNotFound)
	}
	s.log.Info("course deleted", "course_id", id)
	return nil
}

func (s *CourseService) checkName(ctx context.Context, name string, excludeID uint64) error {
	taken, err := s.courses.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return conflict(msgCourseNameTaken)
	}
	return nil
}
