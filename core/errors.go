package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	BrokerErrorBadInput               = "BROKER_BAD_INPUT"
	BrokerErrorPermissionDenied       = "BROKER_PERMISSION_DENIED"
	BrokerErrorNoProviders            = "BROKER_NO_PROVIDERS"
	BrokerErrorResultResolutionFailed = "BROKER_RESULT_RESOLUTION_FAILED"
	BrokerErrorExternalProviderError  = "BROKER_EXTERNAL_PROVIDER_ERROR"
	BrokerErrorCorrelationConflict    = "BROKER_CORRELATION_CONFLICT"
	BrokerErrorNotFound               = "BROKER_NOT_FOUND"
	BrokerErrorInternal               = "BROKER_INTERNAL_ERROR"
)

func newPermissionDeniedError(permissionID string) *goerrors.Error {
	return newBrokerError(
		"core: permission "+strings.TrimSpace(permissionID)+" was denied",
		goerrors.CategoryAuthz,
		BrokerErrorPermissionDenied,
	)
}

func newNoProvidersError(contentTypeFilter string) *goerrors.Error {
	return newBrokerError(
		"core: no providers available for "+strings.TrimSpace(contentTypeFilter),
		goerrors.CategoryNotFound,
		BrokerErrorNoProviders,
	)
}

func newResolutionError(message string) *goerrors.Error {
	return newBrokerError(message, goerrors.CategoryOperation, BrokerErrorResultResolutionFailed)
}

func newExternalProviderError(message string) *goerrors.Error {
	return newBrokerError(message, goerrors.CategoryOperation, BrokerErrorExternalProviderError)
}

func wrapExternalProviderError(err error, message string) *goerrors.Error {
	return ensureBrokerErrorEnvelope(
		goerrors.Wrap(err, goerrors.CategoryOperation, message).
			WithTextCode(BrokerErrorExternalProviderError),
	)
}

func IsPermissionDenied(err error) bool {
	return hasTextCode(err, BrokerErrorPermissionDenied)
}

func IsNoProvidersAvailable(err error) bool {
	return hasTextCode(err, BrokerErrorNoProviders)
}

func IsResultResolutionFailure(err error) bool {
	return hasTextCode(err, BrokerErrorResultResolutionFailed)
}

func IsExternalProviderError(err error) bool {
	return hasTextCode(err, BrokerErrorExternalProviderError)
}

func IsCorrelationConflict(err error) bool {
	return hasTextCode(err, BrokerErrorCorrelationConflict)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

func brokerErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureBrokerErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "already outstanding"):
		return newBrokerError(err.Error(), goerrors.CategoryConflict, BrokerErrorCorrelationConflict)
	case IsDispatchNotPending(err), strings.Contains(msg, "not pending"):
		return newBrokerError(err.Error(), goerrors.CategoryNotFound, BrokerErrorCorrelationConflict)
	case strings.Contains(msg, "not found"):
		return newBrokerError(err.Error(), goerrors.CategoryNotFound, BrokerErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return newBrokerError(err.Error(), goerrors.CategoryBadInput, BrokerErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureBrokerErrorEnvelope(mapped)
}

// NewFieldValidationError is the envelope command and query messages return
// when a field fails validation.
func NewFieldValidationError(message string, field string, reason string) error {
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   field,
		Message: reason,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(BrokerErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

func WrapValidationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(BrokerErrorBadInput)
}

// NewDependencyError reports a handler invoked without its service.
func NewDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(BrokerErrorInternal)
}

func newBrokerError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureBrokerErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureBrokerErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = brokerHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultBrokerTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultBrokerTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return BrokerErrorBadInput
	case goerrors.CategoryNotFound:
		return BrokerErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return BrokerErrorPermissionDenied
	case goerrors.CategoryConflict:
		return BrokerErrorCorrelationConflict
	case goerrors.CategoryOperation:
		return BrokerErrorExternalProviderError
	default:
		return BrokerErrorInternal
	}
}

func brokerHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
