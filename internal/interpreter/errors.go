package interpreter

import "fmt"

// ExternalServiceError wraps failures of the language-model call or its
// response handling. Callers map it to an upstream-failure response.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("interpreter: %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
