package sofetch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors for target resolution. These are deliberately outside the
// typed taxonomy: no request exists yet, so no lifecycle callback observes
// them (see Client.Request docs).
var (
	ErrEmptyTarget = errors.New("sofetch: empty url/path")
	ErrNoBaseURL   = errors.New("sofetch: relative target requires BaseURL")
)

// transportErrorFallback is used when a TransportError has no cause message.
const transportErrorFallback = "request failed"

// Failure is implemented by every typed error produced by the client:
// *HTTPError, *TransportError, *DecodeError and *EncodeError. FailureName
// returns a stable discriminant; FailedRequest returns the request the
// failure originated from.
type Failure interface {
	error
	FailureName() string
	FailedRequest() *http.Request
}

// HTTPError reports a completed exchange whose status code was not 2xx.
type HTTPError struct {
	Request    *http.Request
	Response   *http.Response
	StatusCode int

	// RawBody is a bounded copy of the response body. The response body is
	// reset after capture so the caller can still read it.
	RawBody []byte
}

func newHTTPError(req *http.Request, resp *http.Response, maxBody int64) *HTTPError {
	var raw []byte
	if resp.Body != nil && maxBody > 0 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		_ = resp.Body.Close()
		raw = b
		// Keep the captured bytes readable by the caller without holding
		// the underlying connection open.
		resp.Body = io.NopCloser(bytes.NewReader(raw))
	}
	return &HTTPError{
		Request:    req,
		Response:   resp,
		StatusCode: resp.StatusCode,
		RawBody:    raw,
	}
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Request failed with status code %d", e.StatusCode))
	if reason := http.StatusText(e.StatusCode); reason != "" {
		b.WriteString(" ")
		b.WriteString(reason)
	}
	b.WriteString(": ")
	b.WriteString(strings.ToUpper(e.Request.Method))
	b.WriteString(" ")
	b.WriteString(e.Request.URL.String())
	return b.String()
}

func (e *HTTPError) FailureName() string          { return "HTTPError" }
func (e *HTTPError) FailedRequest() *http.Request { return e.Request }

// TransportError reports a failure to obtain any response (DNS, connection,
// context cancellation, TLS, ...). The cause is the transport's error.
type TransportError struct {
	Request *http.Request
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause == nil || strings.TrimSpace(e.Cause.Error()) == "" {
		return transportErrorFallback
	}
	return e.Cause.Error()
}

func (e *TransportError) Unwrap() error                { return e.Cause }
func (e *TransportError) FailureName() string          { return "TransportError" }
func (e *TransportError) FailedRequest() *http.Request { return e.Request }

// DecodeError reports a response body that could not be decoded as JSON.
// It is scoped to the accessor call, never to the originating dispatch.
type DecodeError struct {
	Request  *http.Request
	Response *http.Response
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response body: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error                { return e.Cause }
func (e *DecodeError) FailureName() string          { return "DecodeError" }
func (e *DecodeError) FailedRequest() *http.Request { return e.Request }

// EncodeError reports a JSON body value that could not be serialized. It is
// the only failure detectable before a request is sent; Request is a
// provisional request built so the error still carries full context.
type EncodeError struct {
	Request *http.Request
	Value   any
	Cause   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode request body: %v", e.Cause)
}

func (e *EncodeError) Unwrap() error                { return e.Cause }
func (e *EncodeError) FailureName() string          { return "EncodeError" }
func (e *EncodeError) FailedRequest() *http.Request { return e.Request }

// AsHTTPError extracts an *HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsHTTPStatus reports whether err is an *HTTPError with the given status.
func IsHTTPStatus(err error, code int) bool {
	he, ok := AsHTTPError(err)
	return ok && he.StatusCode == code
}

// isClassified reports whether err already belongs to the HTTP/transport
// error path (as opposed to an arbitrary callback failure).
func isClassified(err error) bool {
	var he *HTTPError
	var te *TransportError
	return errors.As(err, &he) || errors.As(err, &te)
}
