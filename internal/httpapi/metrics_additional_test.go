package httpapi

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"llamadesk/internal/manager"
)

func TestIncrementRejected_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(rejectedTotal.WithLabelValues("run_inference"))
	IncrementRejected("run_inference")
	IncrementRejected("run_inference")
	got := testutil.ToFloat64(rejectedTotal.WithLabelValues("run_inference"))
	if got < baseline+2 {
		t.Fatalf("expected rejected counter >= %v, got %v", baseline+2, got)
	}

	// Empty command should default to "unspecified"
	before := testutil.ToFloat64(rejectedTotal.WithLabelValues("unspecified"))
	IncrementRejected("")
	after := testutil.ToFloat64(rejectedTotal.WithLabelValues("unspecified"))
	if after < before+1 {
		t.Fatalf("expected unspecified to increment by at least 1: before=%v after=%v", before, after)
	}
}

func TestRejectedCountedOnInvalidState(t *testing.T) {
	before := testutil.ToFloat64(rejectedTotal.WithLabelValues("run_inference"))
	svc := &managerService{Manager: manager.New(nil)}
	rec := postJSON(NewMux(svc), "/inference", `{"prompt":"hi"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
	if after := testutil.ToFloat64(rejectedTotal.WithLabelValues("run_inference")); after < before+1 {
		t.Fatalf("expected rejected counter to grow: before=%v after=%v", before, after)
	}
}
