// Package sofetch is a thin ergonomic layer over net/http:
//   - per-method default options with a common layer and lazy (per-call) factories
//   - header merging with strict later-wins semantics
//   - a small typed error taxonomy (HTTP status, transport, decode, encode)
//   - lifecycle observers and request/response/error modifier chains
//   - response decoration with lazy JSON/text/bytes/form accessors
//
// It is deliberately NOT a networking engine: no retries, no caching, no
// connection management beyond what the caller's *http.Client provides.
// Cancellation and timeouts pass through the request context untouched.
//
// Typical usage:
//
//	client, _ := sofetch.New(
//	    sofetch.WithBaseURL("https://api.example.com"),
//	    sofetch.WithCommonDefaults(sofetch.Value(sofetch.Options{
//	        Header: sofetch.HeaderFromMap(map[string]string{"X-Team": "platform"}),
//	    })),
//	)
//	resp, err := client.Post(ctx, "/widgets", sofetch.WithJSON(widget))
//	if err != nil { ... }
//	created, err := sofetch.JSON[Widget](resp)
//
// Hooks provide observation and transformation without hard dependencies;
// ready-made slog, Prometheus, rate-limit and latency-histogram hooks live in
// the loghook, promhook, ratehook and stathook subpackages.
package sofetch
