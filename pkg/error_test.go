package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	sentinel := NewError("operation failed")

	if got := sentinel.Error(); got != "operation failed" {
		t.Errorf("Error() = %q, want %q", got, "operation failed")
	}

	wrapped := sentinel.Wrap(errors.New("connection refused"))
	if got := wrapped.Error(); got != "operation failed: connection refused" {
		t.Errorf("Error() = %q, want message and cause joined", got)
	}
}

func TestErrorIs(t *testing.T) {
	sentinel := NewError("operation failed")
	cause := errors.New("connection refused")

	derived := sentinel.
		Wrap(cause).
		With(slog.String("host", "netbox.example.com")).
		With(slog.Int("attempt", 2))

	if !errors.Is(derived, sentinel) {
		t.Error("derived error does not match its sentinel")
	}

	if !errors.Is(derived, cause) {
		t.Error("derived error does not match its wrapped cause")
	}

	if errors.Is(derived, NewError("operation failed")) {
		t.Error("matched a distinct sentinel with the same message")
	}
}

func TestErrorWithImmutability(t *testing.T) {
	sentinel := NewError("operation failed")
	derived := sentinel.With(slog.String("key", "value"))

	if sentinel == derived {
		t.Fatal("With returned the sentinel itself")
	}

	if len(sentinel.attrs) != 0 {
		t.Errorf("sentinel attrs mutated: %v", sentinel.attrs)
	}
}

func TestWrapError(t *testing.T) {
	plain := errors.New("plain")
	if e := WrapError(plain); e.Unwrap() != plain {
		t.Errorf("WrapError(plain).Unwrap() = %v, want the original", e.Unwrap())
	}

	sentinel := NewError("operation failed")
	inside := fmt.Errorf("outer: %w", sentinel)

	if e := WrapError(inside); !errors.Is(e, sentinel) {
		t.Errorf("WrapError did not surface the embedded Error: %v", e)
	}
}

func TestErrorLogValue(t *testing.T) {
	err := NewError("operation failed").
		Wrap(errors.New("boom")).
		With(slog.String("host", "sw1"))

	group := err.LogValue().Group()
	if len(group) != 3 {
		t.Fatalf("LogValue groups = %d, want error, cause, and attr", len(group))
	}

	if group[0].Key != "error" || group[1].Key != "cause" || group[2].Key != "host" {
		t.Errorf("LogValue keys = %v, want [error cause host]", group)
	}
}
