package helper

import "fmt"

// Error wraps an underlying error with the operation that failed.
// It keeps the wrapped error reachable for errors.Is and errors.As.
type Error struct {
	Operation string
	Err       error
}

// NewError wraps err with the name of the failed operation.
func NewError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Operation: operation,
		Err:       err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
