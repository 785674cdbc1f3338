// Package loghook provides ready-made slog observers for a sofetch client.
// Attach wires structured request/response/error logging without the library
// itself depending on a logger.
package loghook

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danbahrami/sofetch"
)

// Attach registers logging observers on h. The returned closure removes all
// of them. Pass nil to use slog.Default().
func Attach(h *sofetch.Hooks, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sofetch")

	unsubs := []func(){
		h.OnRequest(func(ctx context.Context, req *http.Request) error {
			logger.DebugContext(ctx, "request",
				"method", req.Method,
				"url", req.URL.String(),
			)
			return nil
		}),
		h.OnSuccess(func(ctx context.Context, req *http.Request, resp *http.Response) error {
			logger.InfoContext(ctx, "response",
				"method", req.Method,
				"url", req.URL.String(),
				"status", resp.StatusCode,
			)
			return nil
		}),
		h.OnError(func(ctx context.Context, req *http.Request, err error) error {
			logger.ErrorContext(ctx, "request failed",
				"method", req.Method,
				"url", req.URL.String(),
				"error", err.Error(),
			)
			return nil
		}),
		h.OnDecodeError(func(ctx context.Context, resp *http.Response, err error) {
			logger.WarnContext(ctx, "response body decode failed", "error", err.Error())
		}),
		h.OnClientError(func(ctx context.Context, err error) {
			logger.ErrorContext(ctx, "client hook failed", "error", err.Error())
		}),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
