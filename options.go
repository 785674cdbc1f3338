package sofetch

import (
	"io"
	"net/http"
	"net/url"
)

// Options is one layer of request options. Layers are merged per dispatch in
// a fixed precedence order (implicit JSON headers, common defaults, method
// defaults, call-site options, lowest to highest). Non-header fields follow
// shallow last-write-wins; Header is merged via MergeHeaders.
type Options struct {
	// Method is only consulted by Client.Request to pick the per-method
	// default slot. The verb shortcuts ignore it.
	Method string

	Header http.Header
	Query  url.Values

	// Body and BodyBytes are mutually exclusive with JSON. A later layer
	// setting one clears the others.
	Body      io.Reader
	BodyBytes []byte

	// JSON, when non-nil, is encoded as the request body at dispatch time
	// and implies a content-type of application/json unless an explicit
	// header overrides it. To send a literal JSON null, use BodyBytes.
	JSON any

	BearerToken string
	BasicUser   string
	BasicPass   string

	// Transport knobs passed through verbatim to the built request.
	Host  string
	Close bool
}

// Source is a defaults slot: a fixed Options value, a zero-arg factory
// producing a fresh Options per dispatch, or absent (the zero Source).
// Factories exist so a caller can inject a per-call value, e.g. a trace id.
type Source struct {
	fixed *Options
	lazy  func() Options
}

// Value returns a Source that always yields o.
func Value(o Options) Source {
	return Source{fixed: &o}
}

// Factory returns a Source whose factory is invoked exactly once per
// dispatch, in merge order.
func Factory(fn func() Options) Source {
	return Source{lazy: fn}
}

// resolve materializes the source, invoking a factory at most once.
// Absent sources resolve to nil.
func (s Source) resolve() *Options {
	if s.lazy != nil {
		o := s.lazy()
		return &o
	}
	return s.fixed
}

// mergeOptions folds option layers, later layers winning. Nil layers are
// skipped. The inputs are not mutated.
func mergeOptions(layers ...*Options) *Options {
	merged := &Options{}
	var headers []http.Header
	for _, l := range layers {
		if l == nil {
			continue
		}
		if l.Method != "" {
			merged.Method = l.Method
		}
		if l.Header != nil {
			headers = append(headers, l.Header)
		}
		if l.Query != nil {
			merged.Query = l.Query
		}
		if l.Body != nil {
			merged.Body = l.Body
			merged.BodyBytes = nil
			merged.JSON = nil
		}
		if l.BodyBytes != nil {
			merged.BodyBytes = l.BodyBytes
			merged.Body = nil
			merged.JSON = nil
		}
		if l.JSON != nil {
			merged.JSON = l.JSON
			merged.Body = nil
			merged.BodyBytes = nil
		}
		if l.BearerToken != "" {
			merged.BearerToken = l.BearerToken
		}
		if l.BasicUser != "" || l.BasicPass != "" {
			merged.BasicUser = l.BasicUser
			merged.BasicPass = l.BasicPass
		}
		if l.Host != "" {
			merged.Host = l.Host
		}
		if l.Close {
			merged.Close = true
		}
	}
	if len(headers) > 0 {
		merged.Header = MergeHeaders(headers...)
	}
	return merged
}
