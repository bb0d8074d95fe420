package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUnavailable, "search backend down").
		WithCause(root).
		WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(true)

	if GetErrorCode(err) != ErrUnavailable {
		t.Fatalf("expected code %s, got %s", ErrUnavailable, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
	if got := HTTPStatusFor(err); got != http.StatusBadGateway {
		t.Fatalf("expected explicit status 502, got %d", got)
	}
}

func TestError_WrappedDetection(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrRateLimited, "quota exhausted").WithRetryable(true)
	wrapped := fmt.Errorf("calling search: %w", inner)

	if GetErrorCode(wrapped) != ErrRateLimited {
		t.Fatalf("expected code to survive wrapping, got %q", GetErrorCode(wrapped))
	}
	if !IsRetryable(wrapped) {
		t.Fatalf("expected retryable to survive wrapping")
	}
	if got := HTTPStatusFor(wrapped); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 from default mapping, got %d", got)
	}
}

func TestDefaultHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrAgentNotFound, http.StatusNotFound},
		{ErrTaskNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrTimeout, http.StatusGatewayTimeout},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{ErrTaskFinished, http.StatusConflict},
		{ErrInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := DefaultHTTPStatus(tc.code); got != tc.want {
			t.Errorf("DefaultHTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestHTTPStatusFor_PlainError(t *testing.T) {
	t.Parallel()

	if got := HTTPStatusFor(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("plain errors should map to 500, got %d", got)
	}
}
