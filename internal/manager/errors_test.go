package manager

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{invalidStateError{msg: "x"}, "invalid_state"},
		{resourceUnavailableError{msg: "x"}, "resource_unavailable"},
		{ErrOperationCancelled, "cancelled"},
		{fmt.Errorf("feed: %w", ErrOperationCancelled), "cancelled"},
		{ErrDependencyUnavailable("no llama"), "dependency_unavailable"},
		{engineFailureError{op: "load", err: errors.New("x")}, "engine_failure"},
		{errors.New("plain"), ""},
	}
	for _, c := range cases {
		if got := ErrorKind(c.err); got != c.kind {
			t.Fatalf("ErrorKind(%v) = %q, want %q", c.err, got, c.kind)
		}
	}
}

func TestErrorStatusCodes(t *testing.T) {
	type coded interface{ StatusCode() int }
	cases := []struct {
		err  coded
		want int
	}{
		{invalidStateError{}, http.StatusConflict},
		{resourceUnavailableError{}, http.StatusServiceUnavailable},
		{engineFailureError{err: errors.New("x")}, http.StatusInternalServerError},
		{dependencyUnavailableError{}, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		if got := c.err.StatusCode(); got != c.want {
			t.Fatalf("%T: status=%d want %d", c.err, got, c.want)
		}
	}
}

func TestEngineFailureUnwraps(t *testing.T) {
	cause := errors.New("bad magic")
	err := error(engineFailureError{op: "load model", err: cause})
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
	if err.Error() != "load model: bad magic" {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	m := New(newFakeEngine())
	ctx, cancel := contextWithCancel()
	if err := m.classify(ctx, "op", errors.New("x")); !IsEngineFailure(err) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	cancel()
	if err := m.classify(ctx, "op", errors.New("x")); !IsCancelled(err) {
		t.Fatalf("expected cancelled once ctx is done, got %v", err)
	}
}
