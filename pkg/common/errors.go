package common

import (
	"errors"
	"net/http"
)

// Store failure taxonomy. All of these are non-fatal: the store leaves its
// prior state intact and the caller decides how to present the failure.
var (
	ErrNotFound        = errors.New("common: entity not found")
	ErrUnauthenticated = errors.New("common: no active session")
	ErrConflict        = errors.New("common: entity already exists")
	ErrValidation      = errors.New("common: invalid input")
)

// HTTPStatus maps a store failure onto a response code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
