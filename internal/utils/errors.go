package utils

import (
	"errors"
	"fmt"
)

// APIError is the error body exchanged between the API server and its
// clients.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func New(code int, message string) error {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// HasCode reports whether err wraps an APIError with the given status code.
func HasCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
