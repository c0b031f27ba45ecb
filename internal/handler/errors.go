package handler

import (
	"errors"
	"net/http"

	"fleet-backend/internal/service"
)

// statusFromError maps service sentinel errors onto HTTP status codes.
// Rejected operations are client errors; anything else is a server fault.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
