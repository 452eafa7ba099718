package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindAndStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
		code int
	}{
		{Invalid("bad plate", "plate: invalid format"), KindInvalidInput, http.StatusUnprocessableEntity},
		{NotFound("vehicle not found"), KindNotFound, http.StatusNotFound},
		{Conflict("vehicle already bound"), KindConflict, http.StatusConflict},
		{Forbidden("other company"), KindForbidden, http.StatusForbidden},
		{New(KindTransient, "storage timeout"), KindTransient, http.StatusServiceUnavailable},
		{errors.New("plain"), KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.kind {
			t.Fatalf("KindOf(%v) = %d, want %d", c.err, got, c.kind)
		}
		if got := HTTPStatus(c.err); got != c.code {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", c.err, got, c.code)
		}
	}
}

func TestWrapKeepsChain(t *testing.T) {
	base := errors.New("deadline exceeded")
	err := Wrap(KindTransient, "snapshot update failed", base)

	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to satisfy errors.Is")
	}
	if !IsTransient(err) {
		t.Fatalf("expected transient")
	}

	// 再包一层 fmt.Errorf 后分类仍可提取
	outer := fmt.Errorf("ingest: %w", err)
	if KindOf(outer) != KindTransient {
		t.Fatalf("expected kind to survive further wrapping")
	}
}

func TestInvalidFields(t *testing.T) {
	err := Invalid("invalid vehicle", "plate: required", "year: out of range")
	fields := FieldsOf(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 field details, got %d", len(fields))
	}
	if FieldsOf(errors.New("x")) != nil {
		t.Fatalf("expected nil fields for plain error")
	}
}
