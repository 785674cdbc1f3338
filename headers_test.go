package sofetch

import (
	"net/http"
	"reflect"
	"testing"
)

func TestMergeHeaders_LaterSourceWinsPerKey(t *testing.T) {
	a := http.Header{"X-Token": {"a1", "a2"}, "Accept": {"text/plain"}}
	c := MergeHeaders(a, HeaderFromMap(map[string]string{"x-token": "b"}))

	if got := c.Values("X-Token"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("later source should replace all values, got %v", got)
	}
	if got := c.Get("Accept"); got != "text/plain" {
		t.Fatalf("untouched key lost: %q", got)
	}
}

func TestMergeHeaders_CaseInsensitive(t *testing.T) {
	merged := MergeHeaders(
		HeaderFromMap(map[string]string{"content-type": "text/plain"}),
		HeaderFromMap(map[string]string{"CONTENT-TYPE": "application/json"}),
	)
	if got := merged.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected case-insensitive override, got %q", got)
	}
	if len(merged["Content-Type"]) != 1 {
		t.Fatalf("expected a single canonical key, got %v", merged)
	}
}

func TestMergeHeaders_AssociativeInEffect(t *testing.T) {
	a := HeaderFromMap(map[string]string{"K": "a", "Only-A": "1"})
	b := HeaderFromMap(map[string]string{"k": "b", "Only-B": "2"})
	c := HeaderFromMap(map[string]string{"K": "c"})

	flat := MergeHeaders(a, b, c)
	nested := MergeHeaders(MergeHeaders(a, b), c)
	if !reflect.DeepEqual(flat, nested) {
		t.Fatalf("merge not associative in effect:\nflat=%v\nnested=%v", flat, nested)
	}
}

func TestMergeHeaders_SkipsNilSources(t *testing.T) {
	merged := MergeHeaders(nil, HeaderFromMap(map[string]string{"A": "1"}), nil)
	if got := merged.Get("A"); got != "1" {
		t.Fatalf("got %q", got)
	}
}

func TestMergeHeaders_DoesNotMutateInputs(t *testing.T) {
	src := http.Header{"A": {"1"}}
	_ = MergeHeaders(src, HeaderFromMap(map[string]string{"A": "2"}))
	if got := src.Get("A"); got != "1" {
		t.Fatalf("input mutated: %q", got)
	}
}
