package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/service"
)

type EnrollmentHandler struct {
	Enrollments *service.EnrollmentService
	Log         *logger.Logger
}

func NewEnrollmentHandler(s *service.EnrollmentService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{Enrollments: s, Log: log}
}

type enrollReq struct {
	CourseID uint64 `json:"courseId" validate:"required"`
	OrderID  uint64 `json:"orderId" validate:"required"`
}

// progress is a pointer so an explicit 0 is told apart from a missing field.
type progressReq struct {
	Progress *int `json:"progress" validate:"required"`
}

// Enroll handles POST /enrollments for an already completed order.
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	var req enrollReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Enroll(ctx, middleware.UserID(c), req.CourseID, req.OrderID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, "Successfully enrolled in course", echo.Map{"enrollment": e})
}

func (h *EnrollmentHandler) List(c echo.Context) error {
	p, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Enrollments.ListMine(ctx, middleware.UserID(c), p)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"count":       len(page.Enrollments),
		"total":       page.Total,
		"currentPage": page.CurrentPage,
		"enrollments": page.Enrollments,
	})
}

func (h *EnrollmentHandler) Check(c echo.Context) error {
	courseID, valid := pathID(c, "courseId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Enrollments.Check(ctx, middleware.UserID(c), courseID)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	body := echo.Map{"isEnrolled": res.IsEnrolled}
	if res.Enrollment != nil {
		body["enrollment"] = res.Enrollment
	}
	return ok(c, http.StatusOK, "", body)
}

func (h *EnrollmentHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "enrollmentId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"enrollment": e})
}

// Progress handles PUT /enrollments/:enrollmentId/progress.
func (h *EnrollmentHandler) Progress(c echo.Context) error {
	id, valid := pathID(c, "enrollmentId")
	if !valid {
		return badRequest(c, msgInvalidID)
	}
	var req progressReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Enrollments.UpdateProgress(ctx, middleware.UserID(c), id, *req.Progress)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, "Enrollment progress updated", echo.Map{"enrollment": e})
}
