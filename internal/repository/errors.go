package repository

import "fmt"

// QueryError marks a failure of a caller-supplied read statement. It is
// recoverable and scoped to the single query that caused it.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
