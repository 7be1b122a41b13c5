package api

import (
	"errors"   // Sentinel error checks
	"net/http" // HTTP status codes

	"gam_market/internal/domain" // Importing domain errors
)

// errorStatus maps a domain error to an HTTP status and client message.
// Validation errors are 400, missing rows 404, recoverable conflicts 409;
// anything else is an internal error and the detail stays in the log.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrInvalidResult),
		errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMarketNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrMarketClosed),
		errors.Is(err, domain.ErrDuplicateBet),
		errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
