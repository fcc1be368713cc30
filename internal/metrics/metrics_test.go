package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := New("banboard")

	m.ObserveLookup(ResultHit)
	m.ObserveLookup(ResultHit)
	m.ObserveLookup(ResultMiss)
	m.ObserveRefresh(250*time.Millisecond, 42)
	m.ObserveRefreshError("fetch")
	m.ObserveStorageError("write")

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues(ResultHit)); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues(ResultMiss)); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Refreshes); got != 1 {
		t.Errorf("refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Records); got != 42 {
		t.Errorf("records = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.RefreshErrors.WithLabelValues("fetch")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StorageErrors.WithLabelValues("write")); got != 1 {
		t.Errorf("write errors = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLookup(ResultHit)
	m.ObserveRefresh(time.Second, 1)
	m.ObserveRefreshError("decode")
	m.ObserveStorageError("read")
	m.ObserveRecords(3)
}

func TestMetrics_Handler(t *testing.T) {
	m := New("banboard")
	m.ObserveLookup(ResultMiss)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `banboard_cache_lookups_total{result="miss"} 1`) {
		t.Errorf("exposition missing lookup counter:\n%s", body)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Registering twice under the same namespace must not panic.
	New("banboard")
	New("banboard")
}
