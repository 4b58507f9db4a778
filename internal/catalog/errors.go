package catalog

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError reports a missing table, column or function.
type NotFoundError struct {
	What  string // e.g. "table", "column"
	Name  string
	Scope string // enclosing scope, e.g. the table a column was sought in
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s '%s' not found in %s", e.What, e.Name, e.Scope)
	}
	return fmt.Sprintf("%s '%s' not found", e.What, e.Name)
}

// ConnectionError reports a failure to reach the backend.
type ConnectionError struct {
	Msg string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog connection failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("catalog connection failed: %s", e.Msg)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed metadata query.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("catalog query failed: %s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NotSupportedError reports an operation the implementation cannot
// perform.
type NotSupportedError struct {
	Msg string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("catalog operation not supported: %s", e.Msg)
}

// TimeoutError reports a catalog operation exceeding its deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("catalog %s timed out after %v", e.Operation, e.Duration)
}

// MisconfiguredError reports unusable catalog configuration.
type MisconfiguredError struct {
	Msg string
}

func (e *MisconfiguredError) Error() string {
	return fmt.Sprintf("catalog misconfigured: %s", e.Msg)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var to *TimeoutError
	return errors.As(err, &to)
}
