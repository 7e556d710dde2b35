package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx backend response. Message holds the backend's
// own error text when the body carried one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

// IsBadRequest reports whether err is a backend HTTP 400 response.
func IsBadRequest(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest
}
