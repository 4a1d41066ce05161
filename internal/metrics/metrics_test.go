package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFetchDone_CountsOutcomes(t *testing.T) {
	p := Init(BuildInfo{Version: "test"})

	p.FetchDone("ok", 1024, 2*time.Second)
	p.FetchDone("skipped", 0, 10*time.Millisecond)
	p.FetchDone("error", 0, time.Second)

	if got := testutil.ToFloat64(p.downloads.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok count: %v", got)
	}
	if got := testutil.ToFloat64(p.downloads.WithLabelValues("error")); got != 1 {
		t.Fatalf("error count: %v", got)
	}
	if got := testutil.ToFloat64(p.downloadBytes); got != 1024 {
		t.Fatalf("bytes: %v", got)
	}
}

func TestDerivativeDone(t *testing.T) {
	p := Init(BuildInfo{})
	p.DerivativeDone("slope")
	p.DerivativeDone("slope")
	p.DerivativeDone("aspect")
	if got := testutil.ToFloat64(p.derivatives.WithLabelValues("slope")); got != 2 {
		t.Fatalf("slope count: %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	p := Init(BuildInfo{Version: "test"})
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status: %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty metrics body")
	}
}
