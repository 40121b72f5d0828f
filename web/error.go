package web

import (
	"errors"
	"net/http"

	"github.com/esimov/facemood"
	"github.com/gofiber/fiber/v2"
)

// Error is an error with the HTTP status code it maps to.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an HTTP error with the given message.
func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

var (
	ErrMissingImage    = NewError(http.StatusBadRequest, "please select an image")
	ErrInvalidFileType = NewError(http.StatusBadRequest, "invalid file type, accepted types: jpg, jpeg, png")
	ErrFileTooLarge    = NewError(http.StatusRequestEntityTooLarge, "file too large")
	ErrInvalidMode     = NewError(http.StatusBadRequest, "invalid input mode")
)

// statusCode maps an error to its HTTP status code.
func statusCode(err error) int {
	var (
		he *Error
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, facemood.ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// message returns the text shown to the user, hiding the details of internal errors.
func message(err error) string {
	code := statusCode(err)
	switch {
	case code >= http.StatusInternalServerError:
		return "something went wrong while detecting the emotions"
	case errors.Is(err, facemood.ErrInvalidImage):
		return "the uploaded file is not a readable image"
	default:
		return err.Error()
	}
}

// errorHandler renders the errors returned by the handlers as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusCode(err)).JSON(errorResponse{
		Error:     message(err),
		RequestID: requestID(c),
	})
}
