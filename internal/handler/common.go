package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv" // strconv converts path ids to numeric types
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/repository"
	"github.com/skillswap/course-marketplace/internal/service"
)

// requestTimeout bounds the work a single handler may do against the store.
const requestTimeout = 5 * time.Second

// reqCtx derives the per-request context handlers pass to services.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

const msgInvalidID = "Invalid ID format"

// pathID parses the named path parameter as a positive id.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// pageQuery reads ?page=&limit=. Defaults are applied by the services.
func pageQuery(c echo.Context) (repository.Page, error) {
	var p repository.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	return p, err
}

// ok writes a success envelope: {"success": true, "message"?, ...payload}.
func ok(c echo.Context, status int, msg string, payload echo.Map) error {
	body := echo.Map{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// fail writes a failure envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

func badRequest(c echo.Context, msg string) error { return fail(c, http.StatusBadRequest, msg) }

// serviceError maps a service failure to its status code. Unclassified
// errors are logged and hidden behind a generic 500.
func serviceError(c echo.Context, log *logger.Logger, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return fail(c, statusOf(se.Kind), se.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("request timed out", "path", c.Path(), "error", err)
	} else {
		log.Error("request failed", "path", c.Path(), "method", c.Request().Method, "error", err)
	}
	return fail(c, http.StatusInternalServerError, "Internal server error")
}

func statusOf(kind error) int {
	switch kind {
	case service.ErrValidation:
		return http.StatusBadRequest
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrConflict:
		return http.StatusConflict
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	case service.ErrForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders errors that escape handlers (unknown routes, bad
// methods, oversized bodies, panics recovered by echo) in the same
// envelope as everything else.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch status {
			case http.StatusNotFound:
				msg = "Route not found"
			case http.StatusInternalServerError:
			default:
				if m, ok := he.Message.(string); ok {
					msg = m
				} else {
					msg = http.StatusText(status)
				}
			}
		}
		if status >= 500 {
			log.Error("unhandled error", "path", c.Request().URL.Path, "error", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = fail(c, status, msg)
	}
}
