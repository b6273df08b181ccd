package ukair

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
)

// ErrorKind is the closed set of upstream failure classes. Downstream
// code matches on these instead of probing unknown error shapes.
type ErrorKind string

const (
	// KindResponse means the upstream answered with a non-2xx status.
	KindResponse ErrorKind = "response"

	// KindNoResponse means the request was sent but no response arrived
	// (timeout, connection reset).
	KindNoResponse ErrorKind = "no_response"

	// KindInternal covers everything else (request construction, body
	// decode).
	KindInternal ErrorKind = "internal"
)

// UpstreamError is the normalized error returned by all UK-AIR client
// operations.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Op         string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := "ukair " + e.Op + ": " + string(e.Kind) + " (status " + strconv.Itoa(e.StatusCode) + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	HTTPStatusCode() int
}

// HTTPStatusCode returns the classified status code.
func (e *UpstreamError) HTTPStatusCode() int { return e.StatusCode }

var threeDigitPattern = regexp.MustCompile(`\b([1-5]\d{2})\b`)

// ClassifyStatus maps any error to an HTTP status code, in priority
// order: an UpstreamError carrying an upstream response status, any error
// exposing HTTPStatusCode(), a 3-digit number inside the error message,
// then 500. The classification is total: every error yields a code.
func ClassifyStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode != 0 {
		return upstream.StatusCode
	}

	var coder statusCoder
	if errors.As(err, &coder) {
		if code := coder.HTTPStatusCode(); code != 0 {
			return code
		}
	}

	if m := threeDigitPattern.FindString(err.Error()); m != "" {
		code, _ := strconv.Atoi(m)
		return code
	}

	return http.StatusInternalServerError
}

// statusMessages is the fixed status-to-copy table shown on the shared
// error view when the count preflight fails.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "There is a problem with the information you provided",
	http.StatusUnauthorized:        "You are not authorised to use this service",
	http.StatusForbidden:           "You do not have permission to use this service",
	http.StatusNotFound:            "The service could not be found",
	http.StatusInternalServerError: "Sorry, there is a problem with the service",
}

// DefaultStatusMessage is shown for statuses without a table entry.
const DefaultStatusMessage = "Sorry, there is a problem with the service"

// StatusMessage returns the user-facing copy for a classified status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return DefaultStatusMessage
}
