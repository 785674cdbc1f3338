package sofetch

import (
	"context"
	"net/http"
	"sync"
)

// RequestModifier transforms the outgoing request before it is sent.
// Returning (nil, nil) keeps the current request, so a modifier may mutate
// the request in place and return nothing. Returning a request replaces the
// accumulator for subsequent modifiers. A non-nil error aborts the dispatch.
type RequestModifier func(ctx context.Context, req *http.Request) (*http.Request, error)

// ResponseModifier transforms the raw response after a successful send and
// before status classification. Returning (nil, nil) keeps the current
// response. A modifier may return a typed *HTTPError or *TransportError to
// reclassify the exchange; any such error routes through the normal error
// path, anything else is reported via OnClientError.
type ResponseModifier func(ctx context.Context, req *http.Request, resp *http.Response) (*http.Response, error)

// ErrorModifier transforms the final error before it is observed and
// returned. Returning nil keeps the current error; returning a non-nil error
// replaces it. There is no rollback: effects of earlier modifiers stand.
type ErrorModifier func(ctx context.Context, req *http.Request, err error) error

// RequestObserver is invoked after modifiers ran and before the request is
// sent. Observers run sequentially in registration order; an error aborts
// the dispatch and is reported via OnClientError.
type RequestObserver func(ctx context.Context, req *http.Request) error

// ResponseObserver is invoked for 2xx responses only. Observers must not
// consume the response body (it is a single-read stream owned by the caller).
type ResponseObserver func(ctx context.Context, req *http.Request, resp *http.Response) error

// ErrorObserver is invoked with the final HTTP/transport error before it is
// returned to the caller.
type ErrorObserver func(ctx context.Context, req *http.Request, err error) error

// DecodeErrorObserver is invoked when a Response JSON accessor fails to
// decode the body. Observe-only: it cannot alter the accessor's result.
type DecodeErrorObserver func(ctx context.Context, resp *http.Response, err error)

// ClientErrorObserver is the catch-all channel for failures outside the
// typed taxonomy (errors thrown by user callbacks and modifiers). It only
// observes; the error is always re-returned to the caller.
type ClientErrorObserver func(ctx context.Context, err error)

type registration[T any] struct {
	id uint64
	fn T
}

// registry is an insertion-ordered callback store. Each register call adds
// one entry and returns an unsubscribe closure that removes exactly that
// entry; calling it twice is a no-op.
type registry[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []registration[T]
}

func (r *registry[T]) register(fn T) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, registration[T]{id: id, fn: fn})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.entries {
			if e.id == id {
				r.entries = append(r.entries[:i], r.entries[i+1:]...)
				return
			}
		}
	}
}

// snapshot copies the callbacks so emission never holds the lock.
func (r *registry[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fn
	}
	return out
}

// Hooks holds every lifecycle registry of one configuration snapshot.
// Configure replaces the whole set: previously registered hooks are dropped.
type Hooks struct {
	beforeRequest  registry[RequestModifier]
	beforeResponse registry[ResponseModifier]
	beforeError    registry[ErrorModifier]

	onRequest     registry[RequestObserver]
	onSuccess     registry[ResponseObserver]
	onError       registry[ErrorObserver]
	onDecodeError registry[DecodeErrorObserver]
	onClientError registry[ClientErrorObserver]
}

// BeforeRequest registers a request modifier. The returned closure removes
// exactly this registration and is idempotent.
func (h *Hooks) BeforeRequest(fn RequestModifier) func() { return h.beforeRequest.register(fn) }

// BeforeResponse registers a response modifier (2xx classification has not
// happened yet when it runs).
func (h *Hooks) BeforeResponse(fn ResponseModifier) func() { return h.beforeResponse.register(fn) }

// BeforeError registers an error modifier.
func (h *Hooks) BeforeError(fn ErrorModifier) func() { return h.beforeError.register(fn) }

// OnRequest registers an observer invoked just before the send.
func (h *Hooks) OnRequest(fn RequestObserver) func() { return h.onRequest.register(fn) }

// OnSuccess registers an observer invoked for 2xx responses.
func (h *Hooks) OnSuccess(fn ResponseObserver) func() { return h.onSuccess.register(fn) }

// OnError registers an observer invoked with the final HTTP/transport error.
func (h *Hooks) OnError(fn ErrorObserver) func() { return h.onError.register(fn) }

// OnDecodeError registers an observer for JSON decode failures.
func (h *Hooks) OnDecodeError(fn DecodeErrorObserver) func() { return h.onDecodeError.register(fn) }

// OnClientError registers the catch-all observer.
func (h *Hooks) OnClientError(fn ClientErrorObserver) func() { return h.onClientError.register(fn) }

func (h *Hooks) foldRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	acc := req
	for _, fn := range h.beforeRequest.snapshot() {
		next, err := fn(ctx, acc)
		if err != nil {
			return nil, err
		}
		if next != nil {
			acc = next
		}
	}
	return acc, nil
}

func (h *Hooks) foldResponse(ctx context.Context, req *http.Request, resp *http.Response) (*http.Response, error) {
	acc := resp
	for _, fn := range h.beforeResponse.snapshot() {
		next, err := fn(ctx, req, acc)
		if err != nil {
			return nil, err
		}
		if next != nil {
			acc = next
		}
	}
	return acc, nil
}

func (h *Hooks) foldError(ctx context.Context, req *http.Request, err error) error {
	acc := err
	for _, fn := range h.beforeError.snapshot() {
		if next := fn(ctx, req, acc); next != nil {
			acc = next
		}
	}
	return acc
}

func (h *Hooks) emitRequest(ctx context.Context, req *http.Request) error {
	for _, fn := range h.onRequest.snapshot() {
		if err := fn(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) emitSuccess(ctx context.Context, req *http.Request, resp *http.Response) error {
	for _, fn := range h.onSuccess.snapshot() {
		if err := fn(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) emitError(ctx context.Context, req *http.Request, err error) error {
	for _, fn := range h.onError.snapshot() {
		if cbErr := fn(ctx, req, err); cbErr != nil {
			return cbErr
		}
	}
	return nil
}

func (h *Hooks) emitDecodeError(ctx context.Context, resp *http.Response, err error) {
	for _, fn := range h.onDecodeError.snapshot() {
		fn(ctx, resp, err)
	}
}

func (h *Hooks) emitClientError(ctx context.Context, err error) {
	for _, fn := range h.onClientError.snapshot() {
		fn(ctx, err)
	}
}
