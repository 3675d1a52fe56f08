package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/skillswap/course-marketplace/internal/handler"
	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/service"
	"github.com/skillswap/course-marketplace/internal/utils"
)

// tokenIsRole treats the bearer token as the caller's role.
type tokenIsRole struct{}

func (tokenIsRole) Authenticate(_ context.Context, raw string) (model.User, *utils.SessionClaims, error) {
	if raw == "" {
		return model.User{}, nil, &service.Error{Kind: service.ErrUnauthorized, Message: "Access denied. Please login first."}
	}
	return model.User{ID: 1, Role: raw}, &utils.SessionClaims{}, nil
}

func newCourseAPI() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(logger.Nop())
	e.Validator = handler.NewValidator()
	api := e.Group("/api")
	RegisterCourses(api, handler.NewCourseHandler(nil, logger.Nop()), middleware.JWTAuth(tokenIsRole{}, logger.Nop()))
	return e
}

func send(e *echo.Echo, method, path, role, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+role)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestCourseDeleteIsAdminOnly(t *testing.T) {
	e := newCourseAPI()

	// a malformed id stops in the handler, after the role gate
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodDelete, "/api/courses/abc", model.RoleAdmin, ""))
	assert.Equal(t, http.StatusForbidden, send(e, http.MethodDelete, "/api/courses/abc", model.RoleInstructor, ""))
	assert.Equal(t, http.StatusForbidden, send(e, http.MethodDelete, "/api/courses/abc", model.RoleStudent, ""))
	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodDelete, "/api/courses/abc", "", ""))
}

func TestCourseWritesAllowInstructors(t *testing.T) {
	e := newCourseAPI()

	// an empty body fails validation once the role gate lets the caller in
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/api/courses", model.RoleInstructor, "{}"))
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPut, "/api/courses/abc", model.RoleInstructor, "{}"))
	assert.Equal(t, http.StatusForbidden, send(e, http.MethodPost, "/api/courses", model.RoleStudent, "{}"))
}
