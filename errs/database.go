package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrSchemaSetup        = errors.New("DB setup failed")
)

// NewNotFound builds a 404 for a missing entity, e.g. "Project not found".
func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewDatabaseError creates a new storage error with details about the operation.
// Storage errors are always surfaced as 500; the cause is kept for logging only.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	kind := ErrDatabaseQuery
	if cause != nil {
		errStr := strings.ToLower(cause.Error())
		switch {
		case strings.Contains(errStr, "connection"),
			strings.Contains(errStr, "connect:"),
			strings.Contains(errStr, "database is closed"),
			strings.Contains(errStr, "sql: database is closed"):
			kind = ErrDatabaseConnection
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("Failed to %s %s", operation, entity),
		kind:       storageKind{kind},
		Cause:      cause,
	}
}

// NewSchemaError reports that the schema precondition could not be established.
func NewSchemaError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrSchemaSetup,
		kind:       storageKind{ErrDatabaseQuery},
		Cause:      cause,
	}
}

// storageKind matches ErrStorage and the more specific sentinel it carries.
type storageKind struct{ specific error }

func (k storageKind) Error() string { return k.specific.Error() }

func (k storageKind) Is(target error) bool {
	return target == ErrStorage || target == k.specific
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func IsDatabaseConnectionError(err error) bool {
	return errors.Is(err, ErrDatabaseConnection)
}
