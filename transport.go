package sofetch

import (
	"net"
	"net/http"
	"time"
)

// RoundTripperFunc adapts a function to an http.RoundTripper. Handy for
// stubbing the transport collaborator in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// defaultHTTPClient returns the client used when the caller supplies none:
// a tuned clone of http.DefaultTransport and no client-level timeout
// (cancellation is the request context's job).
func defaultHTTPClient() *http.Client {
	return &http.Client{Transport: defaultTransport()}
}

func defaultTransport() *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return &http.Transport{}
	}
	t := base.Clone()

	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = 5 * time.Second
	t.ExpectContinueTimeout = 1 * time.Second
	t.IdleConnTimeout = 90 * time.Second
	t.ForceAttemptHTTP2 = true
	return t
}
