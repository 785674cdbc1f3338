package stathook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danbahrami/sofetch"
)

func TestRecorder_RecordsSettledRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := sofetch.New(sofetch.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := NewRecorder()
	rec.Attach(client.Hooks())

	if _, err := client.Get(context.Background(), "/ok"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := client.Get(context.Background(), "/fail"); err == nil {
		t.Fatal("expected an HTTPError")
	}

	s := rec.Snapshot()
	if s.Count != 2 {
		t.Fatalf("Count = %d, want 2 (errors settle too)", s.Count)
	}
	if s.Max <= 0 {
		t.Fatalf("Max = %v", s.Max)
	}
	if s.P99 < s.P50 {
		t.Fatalf("P99 %v < P50 %v", s.P99, s.P50)
	}
}

func TestRecorder_Reset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	client, err := sofetch.New(sofetch.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := NewRecorder()
	rec.Attach(client.Hooks())

	if _, err := client.Get(context.Background(), "/x"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	rec.Reset()
	if got := rec.Snapshot().Count; got != 0 {
		t.Fatalf("Count after Reset = %d", got)
	}
}
