// Package ratehook throttles outgoing requests with golang.org/x/time/rate.
package ratehook

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/danbahrami/sofetch"
)

// Limit returns a request modifier that blocks until the limiter grants a
// token or the request context is canceled. Register it first so later
// modifiers run after admission:
//
//	client.Hooks().BeforeRequest(ratehook.Limit(rate.NewLimiter(10, 1)))
func Limit(l *rate.Limiter) sofetch.RequestModifier {
	return func(ctx context.Context, req *http.Request) (*http.Request, error) {
		if err := l.Wait(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
