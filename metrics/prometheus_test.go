package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zalando/failrate/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	tests := []struct {
		name       string
		opts       metrics.Options
		addMetrics func(*metrics.Prometheus)
		expMetrics []string
		expCode    int
	}{
		{
			name: "Incrementing the custom metric counter should get the total custom metrics.",
			addMetrics: func(pm *metrics.Prometheus) {
				pm.IncCounter("circuit.foo.failure")
				pm.IncCounter("circuit.bar.failure")
				pm.IncCounter("circuit.foo.failure")
				pm.IncCounterBy("circuit.foo.success", 3)
			},
			expMetrics: []string{
				`failrate_custom_total{key="circuit.foo.failure"} 2`,
				`failrate_custom_total{key="circuit.bar.failure"} 1`,
				`failrate_custom_total{key="circuit.foo.success"} 3`,
			},
			expCode: http.StatusOK,
		},
		{
			name: "Updating a gauge should keep the last value.",
			addMetrics: func(pm *metrics.Prometheus) {
				pm.UpdateGauge("circuit.foo.failurerate", 40)
				pm.UpdateGauge("circuit.foo.failurerate", 80)
			},
			expMetrics: []string{
				`failrate_custom_gauges{key="circuit.foo.failurerate"} 80`,
			},
			expCode: http.StatusOK,
		},
		{
			name: "Measuring custom metrics, should measure custom metrics latency.",
			addMetrics: func(pm *metrics.Prometheus) {
				pm.MeasureSince("replay.duration", time.Now().Add(-15*time.Millisecond))
			},
			expMetrics: []string{
				`failrate_custom_duration_seconds_bucket{key="replay.duration",le="0.01"} 0`,
				`failrate_custom_duration_seconds_bucket{key="replay.duration",le="0.025"} 1`,
				`failrate_custom_duration_seconds_bucket{key="replay.duration",le="+Inf"} 1`,
				`failrate_custom_duration_seconds_count{key="replay.duration"} 1`,
			},
			expCode: http.StatusOK,
		},
		{
			name: "Custom histogram buckets are used.",
			opts: metrics.Options{HistogramBuckets: []float64{0.001, 1}},
			addMetrics: func(pm *metrics.Prometheus) {
				pm.MeasureSince("replay.duration", time.Now().Add(-15*time.Millisecond))
			},
			expMetrics: []string{
				`failrate_custom_duration_seconds_bucket{key="replay.duration",le="0.001"} 0`,
				`failrate_custom_duration_seconds_bucket{key="replay.duration",le="1"} 1`,
			},
			expCode: http.StatusOK,
		},
		{
			name: "The prefix replaces the namespace.",
			opts: metrics.Options{Prefix: "breakers."},
			addMetrics: func(pm *metrics.Prometheus) {
				pm.IncCounter("circuit.foo.rejected")
			},
			expMetrics: []string{
				`breakers_custom_total{key="circuit.foo.rejected"} 1`,
			},
			expCode: http.StatusOK,
		},
		{
			name: "Runtime metrics are collected when enabled.",
			opts: metrics.Options{EnableRuntimeMetrics: true},
			addMetrics: func(pm *metrics.Prometheus) {
				pm.IncCounter("circuit.foo.rejected")
			},
			expMetrics: []string{
				`go_goroutines`,
			},
			expCode: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pm := metrics.NewPrometheus(test.opts)
			defer pm.Close()
			path := "/awesome-metrics"

			// Create the muxer and register as handler on the Metrics service.
			mux := http.NewServeMux()
			pm.RegisterHandler(path, mux)

			// Add the required metrics.
			test.addMetrics(pm)

			// Make the request to the metrics.
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			// Check.
			resp := w.Result()
			if test.expCode != resp.StatusCode {
				t.Errorf("metrics service returned an incorrect status code, should be: %d, got: %d", test.expCode, resp.StatusCode)
			} else {
				body, _ := io.ReadAll(resp.Body)
				// Check all the metrics are present.
				for _, expMetric := range test.expMetrics {
					if ok := strings.Contains(string(body), expMetric); !ok {
						t.Errorf("'%s' metric not present on the result of metrics service", expMetric)
					}
				}
			}
		})
	}
}
