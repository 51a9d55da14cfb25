package app

import (
	"errors"
	"fmt"
	"net/http"

	"cadence/api/internal/auth"
	"cadence/api/internal/authpw"
	"cadence/api/internal/enhance"
	"cadence/api/internal/export"
	"cadence/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var errUpdateNotFound = domainError(http.StatusNotFound, "NOT_FOUND", "Weekly update not found", nil)

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	var validation *store.ValidationError
	if errors.As(err, &validation) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Weekly update is invalid", map[string]any{"problems": validation.Problems}
	}
	var duplicate *store.DuplicateWeekError
	if errors.As(err, &duplicate) {
		return http.StatusConflict, "DUPLICATE_WEEK", duplicate.Error(), map[string]any{"existingId": duplicate.ExistingID}
	}

	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Weekly update not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error(), nil
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", err.Error(), nil
	case errors.Is(err, enhance.ErrDisabled):
		return http.StatusServiceUnavailable, "ENHANCE_UNAVAILABLE", "Text enhancement is not configured", nil
	case errors.Is(err, enhance.ErrEmptyText):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil
	}
	return http.StatusInternalServerError, "PERSISTENCE_ERROR", "Server error", nil
}
