package loghook

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danbahrami/sofetch"
)

func TestAttach_LogsLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := sofetch.New(sofetch.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Attach(client.Hooks(), logger)

	if _, err := client.Get(context.Background(), "/ok"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := client.Get(context.Background(), "/missing"); err == nil {
		t.Fatal("expected an HTTPError")
	}

	out := buf.String()
	if !strings.Contains(out, "component=sofetch") {
		t.Fatalf("missing component attr:\n%s", out)
	}
	if !strings.Contains(out, "msg=response") || !strings.Contains(out, "status=200") {
		t.Fatalf("missing success log:\n%s", out)
	}
	if !strings.Contains(out, "msg=\"request failed\"") {
		t.Fatalf("missing error log:\n%s", out)
	}
}

func TestAttach_DetachSilences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	client, err := sofetch.New(sofetch.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	detach := Attach(client.Hooks(), logger)
	detach()

	if _, err := client.Get(context.Background(), "/x"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("detached logger still wrote:\n%s", buf.String())
	}
}
