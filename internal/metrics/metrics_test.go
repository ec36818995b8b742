package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSearchesStarted(t *testing.T) {
	initial := testutil.ToFloat64(SearchesStarted)

	SearchesStarted.Inc()

	if got := testutil.ToFloat64(SearchesStarted); got != initial+1 {
		t.Errorf("SearchesStarted = %v, want %v", got, initial+1)
	}
}

func TestRecordSearchFinished(t *testing.T) {
	outcomes := []string{"ok", "error", "expunged"}

	for _, outcome := range outcomes {
		initial := testutil.ToFloat64(SearchesFinished.WithLabelValues(outcome))

		RecordSearchFinished(outcome, 0.01)

		if got := testutil.ToFloat64(SearchesFinished.WithLabelValues(outcome)); got != initial+1 {
			t.Errorf("SearchesFinished[%s] = %v, want %v", outcome, got, initial+1)
		}
	}

	// Histogram is tested indirectly - verify it doesn't panic.
	SearchDuration.Observe(1.0)
}

func TestRecordTierEvaluation(t *testing.T) {
	tests := []struct {
		tier    string
		verdict string
	}{
		{"A", "match"},
		{"B", "unknown"},
		{"C", "no_match"},
	}

	for _, tt := range tests {
		t.Run(tt.tier+"_"+tt.verdict, func(t *testing.T) {
			initial := testutil.ToFloat64(TierEvaluations.WithLabelValues(tt.tier, tt.verdict))

			RecordTierEvaluation(tt.tier, tt.verdict)

			if got := testutil.ToFloat64(TierEvaluations.WithLabelValues(tt.tier, tt.verdict)); got != initial+1 {
				t.Errorf("TierEvaluations[%s,%s] = %v, want %v", tt.tier, tt.verdict, got, initial+1)
			}
		})
	}
}

func TestRangePlannerEmptied(t *testing.T) {
	initial := testutil.ToFloat64(RangePlannerEmptied)

	RangePlannerEmptied.Inc()

	if got := testutil.ToFloat64(RangePlannerEmptied); got != initial+1 {
		t.Errorf("RangePlannerEmptied = %v, want %v", got, initial+1)
	}
}

func TestRecordSearchError(t *testing.T) {
	tests := []string{"syntax", "charset", "search_key", "index_corruption", "io"}

	for _, kind := range tests {
		t.Run(kind, func(t *testing.T) {
			initial := testutil.ToFloat64(SearchErrors.WithLabelValues(kind))

			RecordSearchError(kind)

			if got := testutil.ToFloat64(SearchErrors.WithLabelValues(kind)); got != initial+1 {
				t.Errorf("SearchErrors[%s] = %v, want %v", kind, got, initial+1)
			}
		})
	}
}

func TestStreamerBytesEmitted(t *testing.T) {
	initial := testutil.ToFloat64(StreamerBytesEmitted)

	StreamerBytesEmitted.Add(10)

	if got := testutil.ToFloat64(StreamerBytesEmitted); got != initial+10 {
		t.Errorf("StreamerBytesEmitted = %v, want %v", got, initial+10)
	}
}

func TestRecordFlagRename(t *testing.T) {
	results := []string{"ok", "enospc", "error"}

	for _, result := range results {
		t.Run(result, func(t *testing.T) {
			initial := testutil.ToFloat64(FlagRenames.WithLabelValues(result))

			RecordFlagRename(result)

			if got := testutil.ToFloat64(FlagRenames.WithLabelValues(result)); got != initial+1 {
				t.Errorf("FlagRenames[%s] = %v, want %v", result, got, initial+1)
			}
		})
	}
}

func TestMetricsRegistration(t *testing.T) {
	counters := []prometheus.Counter{
		SearchesStarted,
		RangePlannerEmptied,
		StreamerBytesEmitted,
	}

	for _, c := range counters {
		_ = testutil.ToFloat64(c) // Should not panic
	}

	_ = testutil.ToFloat64(SearchesFinished.WithLabelValues("ok"))
	_ = testutil.ToFloat64(TierEvaluations.WithLabelValues("A", "match"))
	_ = testutil.ToFloat64(SearchErrors.WithLabelValues("syntax"))
	_ = testutil.ToFloat64(FlagRenames.WithLabelValues("ok"))

	SearchDuration.Observe(0.5)
}

func TestMetricNames(t *testing.T) {
	expected := "searchcore_"

	metricsToCheck := []struct {
		name   string
		metric prometheus.Collector
	}{
		{"SearchesStarted", SearchesStarted},
		{"RangePlannerEmptied", RangePlannerEmptied},
		{"StreamerBytesEmitted", StreamerBytesEmitted},
	}

	for _, m := range metricsToCheck {
		t.Run(m.name, func(t *testing.T) {
			ch := make(chan prometheus.Metric, 1)
			m.metric.Collect(ch)
			metric := <-ch
			desc := metric.Desc().String()
			if !strings.Contains(desc, expected) {
				t.Errorf("Metric %s description doesn't contain prefix %s: %s", m.name, expected, desc)
			}
		})
	}
}
