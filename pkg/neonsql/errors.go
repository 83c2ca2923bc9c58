package neonsql

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := loader.Load(ctx, "events", f, ',')
//	if errors.Is(err, neonsql.ErrTypeCoercion) {
//	    // Handle a malformed field in the source file
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrExecutionFailed indicates the database rejected a statement.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrSchema indicates the destination table or its columns could not be resolved.
	ErrSchema = errors.New("schema lookup failed")

	// ErrTypeCoercion indicates a source field could not be parsed as its column type.
	ErrTypeCoercion = errors.New("type coercion failed")

	// ErrUnsupportedType indicates a column type outside the loadable scalar set.
	ErrUnsupportedType = errors.New("unsupported column type")

	// ErrInvalidRecord indicates a source record whose shape does not match the table.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrApprovalDenied indicates the user denied approval for a destructive operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrAPIRequest indicates a Neon control-plane request failed.
	ErrAPIRequest = errors.New("api request failed")
)

// SchemaError reports that the destination table could not be resolved.
// It is returned before any source record is read.
type SchemaError struct {
	Table  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error for table %q", e.Table)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// TypeCoercionError reports a field that cannot be represented in its column's declared type.
// Row is the 1-based data record number (the header is not counted); Line is the
// 1-based line in the source file.
type TypeCoercionError struct {
	Row    int
	Line   int
	Column string
	Type   string
	Value  string
	Err    error
}

func (e *TypeCoercionError) Error() string {
	msg := fmt.Sprintf("row %d (line %d): column %q: cannot convert %q to %s", e.Row, e.Line, e.Column, e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

func (e *TypeCoercionError) Is(target error) bool { return target == ErrTypeCoercion }

// UnsupportedTypeError reports a destination column whose declared type cannot be loaded.
type UnsupportedTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported type %q", e.Column, e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// RecordError reports a source record whose field count differs from the table's column count.
type RecordError struct {
	Row  int
	Line int
	Want int
	Got  int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("row %d (line %d): expected %d fields, got %d", e.Row, e.Line, e.Want, e.Got)
}

func (e *RecordError) Is(target error) bool { return target == ErrInvalidRecord }

// ExecutionError wraps a statement the database rejected. The server error is kept
// verbatim so constraint names and SQLSTATE codes reach the user unchanged.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v\nStatement: %s", e.Err, PreviewSQL(e.SQL))
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecutionFailed }

// PreviewSQL shortens a statement to MaxErrorPreviewLength characters for error output.
func PreviewSQL(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) <= MaxErrorPreviewLength {
		return sql
	}
	return sql[:MaxErrorPreviewLength] + "..."
}

// APIError is a non-2xx response from the Neon control plane.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("neon api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("neon api: %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPIRequest }

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrTypeCoercion), errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrInvalidRecord):
		return ExitDataError
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrAPIRequest):
		return ExitAPIError
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognises the error strings cobra and pflag produce for bad invocations.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"if any flags in the group",
		"at least one of the flags in the group",
		"missing required argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
