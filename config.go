package sofetch

import (
	"net/http"
	"strings"
)

// Config configures a Client. Use DefaultConfig() as a baseline. A Config is
// consumed at New/Configure time; later mutation has no effect.
type Config struct {
	// BaseURL is optional. If set, relative targets are resolved against it.
	// It must be absolute.
	BaseURL string

	// HTTPClient is the transport collaborator. If nil, a client with a
	// tuned transport clone and no client-level timeout is used.
	HTTPClient *http.Client

	// UserAgent is set on requests that do not already carry one.
	UserAgent string

	// MaxErrorBodyBytes bounds how much of a non-2xx body is captured into
	// HTTPError.RawBody. Zero means DefaultMaxErrorBodyBytes; negative
	// disables capture.
	MaxErrorBodyBytes int64

	// RequestID configures correlation-id injection.
	RequestID RequestIDConfig

	// Defaults holds the per-method option slots.
	Defaults Defaults
}

// Defaults carries one options Source per verb, a Common slot merged into
// every dispatch, and a Request slot merged only by the method-agnostic
// entry points (Client.Request and Client.Do).
type Defaults struct {
	Common  Source
	Request Source

	Get     Source
	Post    Source
	Put     Source
	Patch   Source
	Delete  Source
	Options Source
	Head    Source
}

const DefaultMaxErrorBodyBytes int64 = 64 << 10 // 64KiB

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
	}
}

// ClientOption customizes a Config during New or Configure.
type ClientOption interface{ apply(*Config) }

type clientOptionFunc func(*Config)

func (f clientOptionFunc) apply(c *Config) { f(c) }

func WithBaseURL(baseURL string) ClientOption {
	return clientOptionFunc(func(c *Config) { c.BaseURL = baseURL })
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return clientOptionFunc(func(c *Config) { c.HTTPClient = hc })
}

// WithTransport is a shorthand for an *http.Client wrapping rt.
func WithTransport(rt http.RoundTripper) ClientOption {
	return clientOptionFunc(func(c *Config) { c.HTTPClient = &http.Client{Transport: rt} })
}

func WithUserAgent(ua string) ClientOption {
	return clientOptionFunc(func(c *Config) { c.UserAgent = ua })
}

func WithMaxErrorBodyBytes(n int64) ClientOption {
	return clientOptionFunc(func(c *Config) { c.MaxErrorBodyBytes = n })
}

func WithRequestID(cfg RequestIDConfig) ClientOption {
	return clientOptionFunc(func(c *Config) { c.RequestID = cfg })
}

// WithCommonDefaults sets the options layer merged into every dispatch.
func WithCommonDefaults(src Source) ClientOption {
	return clientOptionFunc(func(c *Config) { c.Defaults.Common = src })
}

// WithRequestDefaults sets the options layer merged only by Request and Do.
func WithRequestDefaults(src Source) ClientOption {
	return clientOptionFunc(func(c *Config) { c.Defaults.Request = src })
}

// WithMethodDefaults sets the options layer for one verb (case-insensitive).
// Unknown verbs are ignored.
func WithMethodDefaults(method string, src Source) ClientOption {
	return clientOptionFunc(func(c *Config) {
		switch strings.ToUpper(strings.TrimSpace(method)) {
		case http.MethodGet:
			c.Defaults.Get = src
		case http.MethodPost:
			c.Defaults.Post = src
		case http.MethodPut:
			c.Defaults.Put = src
		case http.MethodPatch:
			c.Defaults.Patch = src
		case http.MethodDelete:
			c.Defaults.Delete = src
		case http.MethodOptions:
			c.Defaults.Options = src
		case http.MethodHead:
			c.Defaults.Head = src
		}
	})
}

// slot returns the Source for a verb, matching case-insensitively against
// the known verb set. Unknown methods get the zero (absent) Source.
func (d Defaults) slot(method string) Source {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet:
		return d.Get
	case http.MethodPost:
		return d.Post
	case http.MethodPut:
		return d.Put
	case http.MethodPatch:
		return d.Patch
	case http.MethodDelete:
		return d.Delete
	case http.MethodOptions:
		return d.Options
	case http.MethodHead:
		return d.Head
	default:
		return Source{}
	}
}
