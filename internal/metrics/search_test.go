package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()
}

func TestSearchCounters(t *testing.T) {
	before := testutil.ToFloat64(SearchCacheTotal.WithLabelValues("hit"))
	SearchCacheTotal.WithLabelValues("hit").Inc()
	if got := testutil.ToFloat64(SearchCacheTotal.WithLabelValues("hit")); got != before+1 {
		t.Errorf("search_cache_total{hit} = %f, want %f", got, before+1)
	}

	BackendRequestDuration.WithLabelValues("kg-dataset").Observe(0.02)
	if testutil.CollectAndCount(BackendRequestDuration) == 0 {
		t.Error("expected backend_request_duration_seconds observations")
	}
}
