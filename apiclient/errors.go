package apiclient

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an APIError.
type Kind int

const (
	KindTransport Kind = iota + 1 // the request never got a response
	KindStatus                    // non-2xx response
	KindSoft                      // 2xx response with `success: false`
	KindDecode                    // unreadable response body
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindSoft:
		return "soft"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var ErrNoToken = errors.New("no authentication token found")

// APIError is returned by Client.Do for every failed call.
type APIError struct {
	Kind      Kind
	Method    string
	Endpoint  string
	Status    int // 0 for transport failures
	Message   string
	RequestID string
	Err       error // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

var (
	emptyFeedbackMarkers = []string{"not enrolled", "no feedback found", "no feedback"}
	emptyProfileMarkers  = []string{"no student profile found", "no profile"}
	// profile lookups also answer a plain "Student not found"
	noProfileMarkers = append([]string{"not found"}, emptyProfileMarkers...)
)

func messageContains(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsEmptyFeedback reports whether err is the backend's way of saying "nothing to show"
// for a feedback query (student not enrolled, no feedback yet).
func IsEmptyFeedback(err error) bool {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Kind == KindTransport {
		return false
	}
	return messageContains(err, emptyFeedbackMarkers)
}

// IsNoProfile reports whether err means the user has no student profile.
func IsNoProfile(err error) bool {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Kind == KindTransport {
		return false
	}
	return messageContains(err, noProfileMarkers)
}

// IsEmptyResult reports whether err is one of the domain-expected empty conditions of a feedback
// query. Unlike IsNoProfile, a bare "not found" (unknown route, course or user) is a failure.
func IsEmptyResult(err error) bool {
	if IsEmptyFeedback(err) {
		return true
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Kind == KindTransport {
		return false
	}
	return messageContains(err, emptyProfileMarkers)
}
