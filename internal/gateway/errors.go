package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// GenericFailureMessage is shown when the backend gives no usable reason.
const GenericFailureMessage = "Something went wrong while contacting the analysis service. Please try again."

// NetworkFailureMessage is shown when the backend could not be reached.
const NetworkFailureMessage = "Could not reach the analysis service. Check your connection and try again."

// NetworkError reports a transport failure, timeout or cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError reports a non-2xx status or an undecodable success body.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.Status, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

var messagePaths = []string{"error.message", "error", "message", "detail"}

// extractMessage pulls a human-readable reason out of an error body.
func extractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range messagePaths {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String {
			if msg := strings.TrimSpace(res.Str); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// UserMessage turns a gateway error into banner text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return GenericFailureMessage
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return NetworkFailureMessage
	}
	return GenericFailureMessage
}
