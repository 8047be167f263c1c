package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Third-Party Service Errors
var (
	ErrUpstreamSideEffect = errors.New("upstream side effect failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNoFileUploaded     = errors.New("No file uploaded")
)

// Configuration & Secret Errors
var (
	ErrConfigMissing  = errors.New("configuration missing")
	ErrSecretMismatch = errors.New("Incorrect password")
)

// NewUpstreamError wraps a failure of an external collaborator that runs as a
// side effect (e.g. deleting a remote image). These are logged, never written
// to clients.
func NewUpstreamError(service, operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstreamSideEffect,
		Details:    fmt.Sprintf("%s failed to %s", service, operation),
		Cause:      cause,
	}
}

// NewStorageUnavailableError reports that an external store (image host,
// secret store) rejected or failed an operation the client is waiting on.
func NewStorageUnavailableError(service, operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("Failed to %s", operation),
		kind:       ErrServiceUnavailable,
		Details:    service,
		Cause:      cause,
	}
}

func NewNoFileUploadedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrNoFileUploaded,
		kind:       validationKind{},
		Field:      "file",
	}
}

func NewIncorrectPasswordError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrSecretMismatch,
		kind:       ErrUnauthorized,
		Field:      "password",
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func IsUpstreamSideEffectError(err error) bool {
	return errors.Is(err, ErrUpstreamSideEffect)
}

func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsSecretMismatch(err error) bool {
	return errors.Is(err, ErrSecretMismatch)
}
