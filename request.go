package sofetch

import (
	"io"
	"net/http"
	"net/url"
)

// RequestOption customizes a single call. Options apply on top of the merged
// client defaults (call-site wins).
type RequestOption interface{ apply(*Options) }

type requestOptionFunc func(*Options)

func (f requestOptionFunc) apply(o *Options) { f(o) }

// WithMethod selects the HTTP method. Only honored by Client.Request; the
// verb shortcuts already fix their method.
func WithMethod(method string) RequestOption {
	return requestOptionFunc(func(o *Options) { o.Method = method })
}

func WithHeader(key, value string) RequestOption {
	return requestOptionFunc(func(o *Options) {
		if o.Header == nil {
			o.Header = make(http.Header)
		}
		o.Header.Set(key, value)
	})
}

func WithHeaders(h http.Header) RequestOption {
	return requestOptionFunc(func(o *Options) {
		if h == nil {
			return
		}
		o.Header = MergeHeaders(o.Header, h)
	})
}

// WithHeaderMap adds headers from a plain map (keys canonicalized).
func WithHeaderMap(m map[string]string) RequestOption {
	return requestOptionFunc(func(o *Options) {
		if m == nil {
			return
		}
		o.Header = MergeHeaders(o.Header, HeaderFromMap(m))
	})
}

func WithQuery(values url.Values) RequestOption {
	return requestOptionFunc(func(o *Options) {
		if values == nil {
			return
		}
		if o.Query == nil {
			o.Query = make(url.Values)
		}
		for k, vv := range values {
			for _, v := range vv {
				o.Query.Add(k, v)
			}
		}
	})
}

func WithQueryParam(key, value string) RequestOption {
	return requestOptionFunc(func(o *Options) {
		if o.Query == nil {
			o.Query = make(url.Values)
		}
		o.Query.Add(key, value)
	})
}

// WithJSON sets the request body to the JSON encoding of v. Encoding happens
// at dispatch time so a marshal failure surfaces as an *EncodeError carrying
// full request context. Unless overridden by an explicit header, the request
// gets content-type (and accept) application/json.
func WithJSON(v any) RequestOption {
	return requestOptionFunc(func(o *Options) {
		o.JSON = v
		o.Body = nil
		o.BodyBytes = nil
	})
}

// WithBodyBytes sets the request body as a byte slice (copied).
func WithBodyBytes(b []byte) RequestOption {
	return requestOptionFunc(func(o *Options) {
		o.BodyBytes = append([]byte(nil), b...)
		o.Body = nil
		o.JSON = nil
	})
}

// WithBody sets the request body reader. The body is a single-read stream.
func WithBody(r io.Reader) RequestOption {
	return requestOptionFunc(func(o *Options) {
		o.Body = r
		o.BodyBytes = nil
		o.JSON = nil
	})
}

func WithBearerToken(token string) RequestOption {
	return requestOptionFunc(func(o *Options) { o.BearerToken = token })
}

func WithBasicAuth(user, pass string) RequestOption {
	return requestOptionFunc(func(o *Options) {
		o.BasicUser = user
		o.BasicPass = pass
	})
}

// WithHost overrides the Host header sent to the server.
func WithHost(host string) RequestOption {
	return requestOptionFunc(func(o *Options) { o.Host = host })
}

// WithClose asks the transport to close the connection after this request.
func WithClose() RequestOption {
	return requestOptionFunc(func(o *Options) { o.Close = true })
}

func buildCallOptions(opts []RequestOption) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}
	return o
}
