package sofetch

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func TestRegistry_EmitInInsertionOrder(t *testing.T) {
	var h Hooks
	var order []string
	h.OnRequest(func(ctx context.Context, req *http.Request) error {
		order = append(order, "first")
		return nil
	})
	h.OnRequest(func(ctx context.Context, req *http.Request) error {
		order = append(order, "second")
		return nil
	})

	if err := h.emitRequest(context.Background(), nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestRegistry_ObserverErrorAbortsEmission(t *testing.T) {
	var h Hooks
	boom := errors.New("boom")
	var secondRan bool
	h.OnRequest(func(ctx context.Context, req *http.Request) error { return boom })
	h.OnRequest(func(ctx context.Context, req *http.Request) error {
		secondRan = true
		return nil
	})

	if err := h.emitRequest(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if secondRan {
		t.Fatal("emission should stop at the first failing observer")
	}
}

func TestRegistry_UnsubscribeRemovesExactlyOne(t *testing.T) {
	var h Hooks
	var a, b int
	unsubA := h.OnRequest(func(ctx context.Context, req *http.Request) error { a++; return nil })
	h.OnRequest(func(ctx context.Context, req *http.Request) error { b++; return nil })

	unsubA()
	unsubA() // idempotent

	if err := h.emitRequest(context.Background(), nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if a != 0 {
		t.Fatalf("unsubscribed observer ran %d times", a)
	}
	if b != 1 {
		t.Fatalf("remaining observer ran %d times, want 1", b)
	}
}

func TestRegistry_EmptyIsNoOp(t *testing.T) {
	var h Hooks
	if err := h.emitRequest(context.Background(), nil); err != nil {
		t.Fatalf("empty emit: %v", err)
	}
	req := &http.Request{}
	out, err := h.foldRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("empty fold: %v", err)
	}
	if out != req {
		t.Fatal("empty fold should be identity")
	}
}

func TestFoldRequest_NilReturnKeepsAccumulator(t *testing.T) {
	var h Hooks
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)

	h.BeforeRequest(func(ctx context.Context, r *http.Request) (*http.Request, error) {
		r.Header.Set("X-Mutated", "yes")
		return nil, nil // in-place mutation, no replacement
	})
	h.BeforeRequest(func(ctx context.Context, r *http.Request) (*http.Request, error) {
		if r.Header.Get("X-Mutated") != "yes" {
			t.Fatal("mutation from earlier modifier lost")
		}
		return nil, nil
	})

	out, err := h.foldRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if out != req {
		t.Fatal("accumulator should be unchanged when modifiers return nil")
	}
	if out.Header.Get("X-Mutated") != "yes" {
		t.Fatal("in-place mutation not honored")
	}
}

func TestFoldRequest_ReplacementFlowsToNextModifier(t *testing.T) {
	var h Hooks
	orig, _ := http.NewRequest(http.MethodGet, "http://example.test/a", nil)
	repl, _ := http.NewRequest(http.MethodGet, "http://example.test/b", nil)

	h.BeforeRequest(func(ctx context.Context, r *http.Request) (*http.Request, error) {
		return repl, nil
	})
	var seen *http.Request
	h.BeforeRequest(func(ctx context.Context, r *http.Request) (*http.Request, error) {
		seen = r
		return nil, nil
	})

	out, err := h.foldRequest(context.Background(), orig)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if out != repl || seen != repl {
		t.Fatal("replacement should become the accumulator for later modifiers")
	}
}

func TestFoldError_NilKeepsNonNilReplaces(t *testing.T) {
	var h Hooks
	first := errors.New("first")
	second := errors.New("second")

	h.BeforeError(func(ctx context.Context, req *http.Request, err error) error { return nil })
	h.BeforeError(func(ctx context.Context, req *http.Request, err error) error {
		if !errors.Is(err, first) {
			t.Fatalf("accumulator = %v", err)
		}
		return second
	})

	if got := h.foldError(context.Background(), nil, first); !errors.Is(got, second) {
		t.Fatalf("got %v", got)
	}
}

func TestFoldError_NoRollbackOfEarlierEffects(t *testing.T) {
	var h Hooks
	var effects []string
	h.BeforeError(func(ctx context.Context, req *http.Request, err error) error {
		effects = append(effects, "first")
		return nil
	})
	h.BeforeError(func(ctx context.Context, req *http.Request, err error) error {
		return errors.New("replaced")
	})

	_ = h.foldError(context.Background(), nil, errors.New("seed"))
	if !reflect.DeepEqual(effects, []string{"first"}) {
		t.Fatalf("effects = %v", effects)
	}
}
