// Package cerr attaches an HTTP status code to errors coming out of the
// event use cases. Errors without a status are classified by the domain
// sentinel they wrap.
package cerr

import (
	"errors"
	"fmt"
	"net/http"

	"friendspark/geohash"
	"friendspark/models"
)

type Error struct {
	Err            error
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func BadRequest(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusBadRequest}
}

// BadRequestf formats a 400 error for a malformed request parameter.
func BadRequestf(format string, args ...any) *Error {
	return BadRequest(fmt.Errorf(format, args...))
}

func NotFound(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusNotFound}
}

func Conflict(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusConflict}
}

// Invalid marks a validation failure as a 400 unless err already carries
// a status, which is kept.
func Invalid(err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return BadRequest(err)
}

// StatusCode returns the status carried by the first *Error in err's
// chain. Otherwise bad coordinates, bad geohashes and invalid events map
// to 400, a missing event to 404 and anything else to 500.
func StatusCode(err error) int {
	var ce *Error
	switch {
	case errors.As(err, &ce):
		return ce.HTTPStatusCode
	case errors.Is(err, geohash.ErrInvalidArgument),
		errors.Is(err, geohash.ErrInvalidCharacter),
		errors.Is(err, models.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEventNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
