// Package service holds the business rules of the marketplace. Services
// depend on small store interfaces (implemented by package repository)
// and report failures as *Error values whose Kind is one of the sentinels
// below, so the HTTP layer can pick a status code and a message that is
// safe to show to the client.
package service

import (
	"errors"

	"github.com/skillswap/course-marketplace/internal/repository"
)

// Error kinds. Handlers map them to 400, 404, 409, 401 and 403.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a classified failure carrying a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func badRequest(msg string) error   { return &Error{Kind: ErrValidation, Message: msg} }
func notFound(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error     { return &Error{Kind: ErrConflict, Message: msg} }
func unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }
func forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }

// Messages shared by more than one service.
const (
	msgCourseNotFound   = "Course not found"
	msgAlreadyEnrolled  = "You are already enrolled in this course"
	msgUserNotFound     = "User not found"
	msgOrderNotFound    = "Order not found"
	msgEnrollmentAbsent = "Enrollment not found"
)

// orNotFound returns notFound(msg) when err is a repository miss and err
// unchanged otherwise.
func orNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(msg)
	}
	return err
}
