package client

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrInvalidURL = errors.New("invalid url")

// TransportError is returned when no response was received
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is returned for every response with a status other than 200.
// Body holds the raw response body.
type HTTPError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.IsMalformedRequest() {
		return fmt.Sprintf("http %d: invalid request data, check the competition id: %s",
			e.StatusCode, e.Body)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// IsMalformedRequest reports a rejected competition id or payload
func (e *HTTPError) IsMalformedRequest() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}
