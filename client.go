package sofetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// Client issues HTTP requests through a shared, atomically replaceable
// configuration snapshot. It is safe for concurrent use. Each dispatch reads
// the configuration exactly once at entry, so Configure never affects
// in-flight calls.
type Client struct {
	cfg atomic.Pointer[clientConfig]
}

// clientConfig is one immutable-by-convention configuration snapshot.
// Hook registries live inside the snapshot: Configure drops them.
type clientConfig struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string
	maxErrBody int64
	requestID  RequestIDConfig
	defaults   Defaults
	hooks      *Hooks
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...ClientOption) (*Client, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	c := &Client{}
	c.cfg.Store(cfg)
	return c, nil
}

// Configure replaces the whole configuration: defaults, transport, AND every
// registered hook. It does not layer on top of the previous configuration.
// Dispatches already in flight keep the snapshot they captured.
func (c *Client) Configure(opts ...ClientOption) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	c.cfg.Store(cfg)
	return nil
}

// Hooks returns the hook registries of the current configuration snapshot.
// Hooks registered here are dropped by the next Configure call.
func (c *Client) Hooks() *Hooks {
	return c.cfg.Load().hooks
}

func resolveConfig(opts []ClientOption) (*clientConfig, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}

	var base *url.URL
	if s := strings.TrimSpace(cfg.BaseURL); s != "" {
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("sofetch: base url %q must be absolute", cfg.BaseURL)
		}
		// Treat the BaseURL path as a prefix so relative paths resolve
		// under it.
		if u.Path != "" && !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		base = u
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = defaultHTTPClient()
	}

	maxErrBody := cfg.MaxErrorBodyBytes
	if maxErrBody == 0 {
		maxErrBody = DefaultMaxErrorBodyBytes
	}

	rid := cfg.RequestID
	if rid.Header != "" && rid.New == nil {
		rid.New = DefaultRequestID
	}

	return &clientConfig{
		base:       base,
		httpClient: hc,
		userAgent:  cfg.UserAgent,
		maxErrBody: maxErrBody,
		requestID:  rid,
		defaults:   cfg.Defaults,
		hooks:      &Hooks{},
	}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodGet, target, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodPost, target, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodPut, target, opts)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodPatch, target, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodDelete, target, opts)
}

// Options issues an OPTIONS request.
func (c *Client) Options(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodOptions, target, opts)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.dispatchVerb(ctx, http.MethodHead, target, opts)
}

// Request is the method-agnostic entry point. The verb comes from an
// explicit WithMethod option (default GET); its per-method defaults are
// folded in when it matches a known verb, otherwise only the common and
// request-slot defaults apply.
func (c *Client) Request(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	cfg := c.cfg.Load()
	call := buildCallOptions(opts)
	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		method = http.MethodGet
	}
	merged := mergeOptions(
		cfg.defaults.Common.resolve(),
		cfg.defaults.Request.resolve(),
		cfg.defaults.slot(method).resolve(),
		call,
	)
	return c.dispatch(ctx, cfg, method, target, nil, merged)
}

// Do dispatches a fully-formed *http.Request through the pipeline. The
// request's URL is used as-is (no base-URL resolution); its method selects
// the per-method defaults; its headers sit between the defaults and any
// call-site options.
func (c *Client) Do(req *http.Request, opts ...RequestOption) (*Response, error) {
	cfg := c.cfg.Load()
	call := buildCallOptions(opts)
	merged := mergeOptions(
		cfg.defaults.Common.resolve(),
		cfg.defaults.Request.resolve(),
		cfg.defaults.slot(req.Method).resolve(),
		&Options{Header: req.Header},
		call,
	)
	return c.dispatch(req.Context(), cfg, strings.ToUpper(req.Method), "", req, merged)
}

func (c *Client) dispatchVerb(ctx context.Context, method, target string, opts []RequestOption) (*Response, error) {
	cfg := c.cfg.Load()
	merged := mergeOptions(
		cfg.defaults.Common.resolve(),
		cfg.defaults.slot(method).resolve(),
		buildCallOptions(opts),
	)
	return c.dispatch(ctx, cfg, method, target, nil, merged)
}

var implicitJSONHeader = http.Header{
	"Content-Type": {"application/json"},
	"Accept":       {"application/json"},
}

// dispatch runs the full pipeline for one call: build → transform → observe
// → send → transform → classify → observe → decorate.
func (c *Client) dispatch(ctx context.Context, cfg *clientConfig, method, target string, preformed *http.Request, merged *Options) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	hooks := cfg.hooks

	// The implicit JSON headers sit below every explicit layer.
	if merged.JSON != nil {
		merged.Header = MergeHeaders(implicitJSONHeader, merged.Header)
	}

	req, err := cfg.buildRequest(ctx, method, target, preformed, merged)
	if err != nil {
		// Target-resolution and body-encode failures happen before any
		// request is sent; no lifecycle callback observes them.
		return nil, err
	}

	req, err = hooks.foldRequest(ctx, req)
	if err != nil {
		hooks.emitClientError(ctx, err)
		return nil, err
	}
	if err := hooks.emitRequest(ctx, req); err != nil {
		hooks.emitClientError(ctx, err)
		return nil, err
	}

	resp, sendErr := cfg.httpClient.Do(req)
	if sendErr != nil {
		return nil, c.errorPath(ctx, hooks, req, &TransportError{Request: req, Cause: sendErr})
	}

	resp, err = hooks.foldResponse(ctx, req, resp)
	if err != nil {
		if isClassified(err) {
			// A modifier reclassified the exchange (e.g. a 200 it
			// considers a failure); route it like any other error.
			return nil, c.errorPath(ctx, hooks, req, err)
		}
		drainBody(resp)
		hooks.emitClientError(ctx, err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorPath(ctx, hooks, req, newHTTPError(req, resp, cfg.maxErrBody))
	}

	if err := hooks.emitSuccess(ctx, req, resp); err != nil {
		drainBody(resp)
		hooks.emitClientError(ctx, err)
		return nil, err
	}

	return &Response{
		Response: resp,
		request:  req,
		onDecodeError: func(decodeErr error) {
			hooks.emitDecodeError(ctx, resp, decodeErr)
		},
	}, nil
}

// errorPath folds the error through the BeforeError modifiers, lets the
// OnError observers see the final error, and returns it. An observer that
// itself fails is reported through OnClientError and takes over as the
// returned error. Nothing is ever swallowed.
func (c *Client) errorPath(ctx context.Context, hooks *Hooks, req *http.Request, err error) error {
	final := hooks.foldError(ctx, req, err)
	if obsErr := hooks.emitError(ctx, req, final); obsErr != nil {
		hooks.emitClientError(ctx, obsErr)
		return obsErr
	}
	return final
}

func (cfg *clientConfig) buildRequest(ctx context.Context, method, target string, preformed *http.Request, merged *Options) (*http.Request, error) {
	var req *http.Request

	if preformed != nil {
		req = preformed.Clone(ctx)
		if merged.Query != nil {
			q := req.URL.Query()
			for k, vv := range merged.Query {
				for _, v := range vv {
					q.Add(k, v)
				}
			}
			req.URL.RawQuery = q.Encode()
		}
		if body, encErr := cfg.encodeBody(merged, req); encErr != nil {
			return nil, encErr
		} else if body != nil {
			req.Body = io.NopCloser(body.reader)
			req.ContentLength = body.length
			req.GetBody = body.getBody
		}
	} else {
		u, err := cfg.resolveURL(target, merged.Query)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), nil)
		if err != nil {
			return nil, err
		}
		if body, encErr := cfg.encodeBody(merged, req); encErr != nil {
			return nil, encErr
		} else if body != nil {
			req.Body = io.NopCloser(body.reader)
			req.ContentLength = body.length
			req.GetBody = body.getBody
		}
	}

	// Merged headers replace whatever the clone carried: the preformed
	// request's headers already participated as a merge layer.
	req.Header = MergeHeaders(merged.Header)

	if cfg.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", cfg.userAgent)
	}
	if merged.BearerToken != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+merged.BearerToken)
	}
	if merged.BasicUser != "" && req.Header.Get("Authorization") == "" {
		req.SetBasicAuth(merged.BasicUser, merged.BasicPass)
	}
	if cfg.requestID.Header != "" && req.Header.Get(cfg.requestID.Header) == "" && cfg.requestID.New != nil {
		if id := strings.TrimSpace(cfg.requestID.New()); id != "" {
			req.Header.Set(cfg.requestID.Header, id)
		}
	}
	if merged.Host != "" {
		req.Host = merged.Host
	}
	if merged.Close {
		req.Close = true
	}
	return req, nil
}

type encodedBody struct {
	reader  io.Reader
	length  int64
	getBody func() (io.ReadCloser, error)
}

// encodeBody materializes the merged body. A JSON marshal failure returns an
// *EncodeError carrying the provisional request (built, never sent).
func (cfg *clientConfig) encodeBody(merged *Options, provisional *http.Request) (*encodedBody, error) {
	switch {
	case merged.JSON != nil:
		b, err := json.Marshal(merged.JSON)
		if err != nil {
			return nil, &EncodeError{Request: provisional, Value: merged.JSON, Cause: err}
		}
		return bytesBody(b), nil
	case merged.BodyBytes != nil:
		return bytesBody(merged.BodyBytes), nil
	case merged.Body != nil:
		return &encodedBody{reader: merged.Body, length: -1}, nil
	default:
		return nil, nil
	}
}

func bytesBody(b []byte) *encodedBody {
	return &encodedBody{
		reader: bytes.NewReader(b),
		length: int64(len(b)),
		getBody: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

// resolveURL resolves the call-site target against the base URL and appends
// extra query values. Absolute targets bypass the base URL. A relative
// target with no base URL is an error.
func (cfg *clientConfig) resolveURL(target string, q url.Values) (*url.URL, error) {
	p := strings.TrimSpace(target)
	if p == "" {
		return nil, ErrEmptyTarget
	}
	u, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		if cfg.base == nil {
			return nil, ErrNoBaseURL
		}
		// Leading "/" still resolves under the BaseURL path prefix, so a
		// base of https://host/api/v1 works with "/users" as expected.
		if strings.HasPrefix(u.Path, "/") {
			u2 := *u
			u2.Path = strings.TrimPrefix(u2.Path, "/")
			u = &u2
		}
		u = cfg.base.ResolveReference(u)
	} else {
		u2 := *u
		u = &u2
	}
	if q != nil {
		qq := u.Query()
		for k, vv := range q {
			for _, v := range vv {
				qq.Add(k, v)
			}
		}
		u.RawQuery = qq.Encode()
	}
	return u, nil
}

// drainBody releases an abandoned response body so the connection can be
// reused.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
