package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
	"github.com/skillswap/course-marketplace/internal/service"
)

// CourseHandler serves the public catalog and the course management
// endpoints for admins and instructors.
type CourseHandler struct {
	Courses *service.CourseService
	Log     *logger.Logger
}

func NewCourseHandler(s *service.CourseService, log *logger.Logger) *CourseHandler {
	return &CourseHandler{Courses: s, Log: log}
}

type createCourseReq struct {
	Name            string           `json:"name" validate:"required,min=3,max=150,hasletter"`
	Description     string           `json:"description" validate:"required,min=10,max=5000"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=100000000000"`
	Category        string           `json:"category" validate:"required,categories"`
	Subcategory     string           `json:"subcategory" validate:"required,max=50"`
	Image           string           `json:"image" validate:"required,imageurl"`
	Instructor      string           `json:"instructor" validate:"required,min=3,max=50,hasletter"`
	InstructorEmail string           `json:"instructorEmail" validate:"omitempty,email"`
	Duration        string           `json:"duration" validate:"required,min=1,max=50"`
	Level           string           `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language        string           `json:"language" validate:"omitempty,max=30"`
}

type updateCourseReq struct {
	Name            *string          `json:"name" validate:"omitempty,min=3,max=150,hasletter"`
	Description     *string          `json:"description" validate:"omitempty,min=10,max=5000"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=100000000000"`
	Category        *string          `json:"category" validate:"omitempty,categories"`
	Subcategory     *string          `json:"subcategory" validate:"omitempty,max=50"`
	Image           *string          `json:"image" validate:"omitempty,imageurl"`
	Instructor      *string          `json:"instructor" validate:"omitempty,min=3,max=50,hasletter"`
	InstructorEmail *string          `json:"instructorEmail" validate:"omitempty,email"`
	Duration        *string          `json:"duration" validate:"omitempty,min=1,max=50"`
	Level           *string          `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language        *string          `json:"language" validate:"omitempty,max=30"`
	IsActive        *bool            `json:"isActive"`
}

func pageBody(p service.CoursePage) echo.Map {
	return echo.Map{
		"count":       len(p.Courses),
		"total":       p.Total,
		"totalPages":  p.TotalPages,
		"currentPage": p.CurrentPage,
		"courses":     p.Courses,
	}
}

// List handles GET /courses with filters, sorting and paging.
func (h *CourseHandler) List(c echo.Context) error {
	var (
		q                  repository.CourseQuery
		minPrice, maxPrice string
		order              = "desc"
	)
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page.Page).
		Int("limit", &q.Page.Limit).
		String("category", &q.Category).
		String("subcategory", &q.Subcategory).
		String("level", &q.Level).
		String("search", &q.Search).
		String("sort", &q.Sort).
		String("order", &order).
		String("minPrice", &minPrice).
		String("maxPrice", &maxPrice).
		BindError()
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	if q.MinPrice, err = optionalDecimal(minPrice); err != nil {
		return badRequest(c, "minPrice must be a number")
	}
	if q.MaxPrice, err = optionalDecimal(maxPrice); err != nil {
		return badRequest(c, "maxPrice must be a number")
	}
	if q.Sort == "" {
		q.Sort = "createdAt"
	}
	q.Desc = !strings.EqualFold(order, "asc")

	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Courses.List(ctx, q)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", pageBody(page))
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *CourseHandler) Latest(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Courses.Latest(ctx)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"count": len(list), "courses": list})
}

func (h *CourseHandler) Trending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Courses.Trending(ctx)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"count": len(list), "courses": list})
}

func (h *CourseHandler) ByCategory(c echo.Context) error {
	p, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Courses.ByCategory(ctx, c.Param("category"), p)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", pageBody(page))
}

// Search handles GET /courses/search?q=.
func (h *CourseHandler) Search(c echo.Context) error {
	p, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Courses.SearchText(ctx, c.QueryParam("q"), p)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", pageBody(page))
}

func (h *CourseHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	course, err := h.Courses.Get(ctx, id)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"course": course})
}

func (h *CourseHandler) Create(c echo.Context) error {
	var req createCourseReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	if req.Price == nil {
		return badRequest(c, "Price is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.Create(ctx, model.Course{
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		Price:           *req.Price,
		Category:        req.Category,
		Subcategory:     strings.TrimSpace(req.Subcategory),
		Image:           req.Image,
		Instructor:      strings.TrimSpace(req.Instructor),
		InstructorEmail: req.InstructorEmail,
		Duration:        strings.TrimSpace(req.Duration),
		Level:           req.Level,
		Language:        strings.TrimSpace(req.Language),
		IsActive:        true,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, "Course created successfully", echo.Map{"course": course})
}

func (h *CourseHandler) Update(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	var req updateCourseReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.Update(ctx, id, model.CoursePatch{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Image:           req.Image,
		Instructor:      req.Instructor,
		InstructorEmail: req.InstructorEmail,
		Duration:        req.Duration,
		Level:           req.Level,
		Language:        req.Language,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course updated successfully", echo.Map{"course": course})
}

func (h *CourseHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Courses.Delete(ctx, id); err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Course deleted successfully", nil)
}
