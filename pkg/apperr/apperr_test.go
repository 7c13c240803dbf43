package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("create asset: %w", InvalidArgument("name is required"))
	if got := CodeOf(err); got != CodeInvalidArgument {
		t.Errorf("expected invalid-argument, got %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Errorf("expected internal for plain error, got %s", got)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("asset %q", "a1"))
	if !errors.Is(err, New(CodeNotFound, "")) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(CodePermissionDenied, "")) {
		t.Error("expected no match for different code")
	}
}

func TestWrapUnwraps(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(base, CodeInternal, "write failed")
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to be reachable")
	}
	if Message(err) != "write failed" {
		t.Errorf("unexpected message %q", Message(err))
	}
	if Message(base) != "internal error" {
		t.Errorf("plain errors should not leak: %q", Message(base))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:   http.StatusBadRequest,
		CodePermissionDenied:  http.StatusForbidden,
		CodeResourceExhausted: http.StatusTooManyRequests,
		CodeNotFound:          http.StatusNotFound,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(code); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}
