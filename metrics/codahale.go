package metrics

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"
)

const (
	statsRefreshDuration = 5 * time.Second

	defaultUniformReservoirSize  = 1024
	defaultExpDecayReservoirSize = 1028
	defaultExpDecayAlpha         = 0.015
)

var percentiles = []float64{0.5, 0.75, 0.95, 0.99, 0.999}

// CodaHale collects the measurements in a go-metrics registry, and serves
// them as JSON, grouped by the metric families of the DropWizard format.
type CodaHale struct {
	reg       metrics.Registry
	void      bool
	sample    func() metrics.Sample
	options   Options
	handler   http.Handler
	quit      chan struct{}
	closeOnce sync.Once
}

// NewCodaHale returns a new CodaHale backend of metrics.
func NewCodaHale(o Options) *CodaHale {
	c := &CodaHale{
		reg:     metrics.NewRegistry(),
		sample:  newUniformSample,
		options: o,
	}

	if o.UseExpDecaySample {
		c.sample = newExpDecaySample
	}

	if o.EnableDebugGcMetrics {
		metrics.RegisterDebugGCStats(c.reg)
	}

	if o.EnableRuntimeMetrics {
		metrics.RegisterRuntimeMemStats(c.reg)
	}

	if o.EnableDebugGcMetrics || o.EnableRuntimeMetrics {
		c.quit = make(chan struct{})
		go c.captureStats(c.quit)
	}

	return c
}

// NewVoid returns a backend that drops every measurement.
func NewVoid() *CodaHale {
	return &CodaHale{reg: metrics.NewRegistry(), void: true}
}

func (c *CodaHale) captureStats(quit <-chan struct{}) {
	ticker := time.NewTicker(statsRefreshDuration)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
		}

		if c.options.EnableDebugGcMetrics {
			metrics.CaptureDebugGCStatsOnce(c.reg)
		}

		if c.options.EnableRuntimeMetrics {
			metrics.CaptureRuntimeMemStatsOnce(c.reg)
		}
	}
}

func (c *CodaHale) getTimer(key string) metrics.Timer {
	if c.void {
		return metrics.NilTimer{}
	}

	return c.reg.GetOrRegister(key, func() metrics.Timer {
		return metrics.NewCustomTimer(metrics.NewHistogram(c.sample()), metrics.NewMeter())
	}).(metrics.Timer)
}

func (c *CodaHale) getCounter(key string) metrics.Counter {
	if c.void {
		return metrics.NilCounter{}
	}

	return c.reg.GetOrRegister(key, metrics.NewCounter).(metrics.Counter)
}

func (c *CodaHale) getGauge(key string) metrics.GaugeFloat64 {
	if c.void {
		return metrics.NilGaugeFloat64{}
	}

	return c.reg.GetOrRegister(key, metrics.NewGaugeFloat64).(metrics.GaugeFloat64)
}

func (c *CodaHale) MeasureSince(key string, start time.Time) {
	c.getTimer(key).UpdateSince(start)
}

func (c *CodaHale) IncCounter(key string) {
	c.getCounter(key).Inc(1)
}

func (c *CodaHale) IncCounterBy(key string, value int64) {
	c.getCounter(key).Inc(value)
}

func (c *CodaHale) UpdateGauge(key string, v float64) {
	c.getGauge(key).Update(v)
}

func (c *CodaHale) Close() {
	c.closeOnce.Do(func() {
		if c.quit != nil {
			close(c.quit)
		}
	})
}

// RegisterHandler serves every metric on path. When path ends with a
// slash, a single metric, or the group of metrics sharing a key prefix,
// can be requested by appending the key to the path.
func (c *CodaHale) RegisterHandler(path string, mux *http.ServeMux) {
	mux.Handle(path, c.getHandler(strings.TrimSuffix(path, "/")))
}

func (c *CodaHale) getHandler(root string) http.Handler {
	if c.handler == nil {
		c.handler = &codaHaleHandler{root: root, reg: c.reg, prefix: c.options.Prefix}
	}

	return c.handler
}

type codaHaleHandler struct {
	root   string
	reg    metrics.Registry
	prefix string
}

func (h *codaHaleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	_, key := path.Split(strings.TrimPrefix(r.URL.Path, h.root))
	selected := h.selectMetrics(key)
	if len(selected) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(selected)
}

// selectMetrics returns the metric stored exactly under key, or, when
// there is none, every metric whose key starts with it. The keys are
// prefixed with the configured prefix.
func (h *codaHaleHandler) selectMetrics(key string) metricFamilies {
	selected := make(metricFamilies)
	name := strings.TrimPrefix(key, h.prefix)
	if m := h.reg.Get(name); m != nil {
		selected.add(key, m)
		return selected
	}

	h.reg.Each(func(n string, m any) {
		if strings.HasPrefix(n, name) {
			selected.add(h.prefix+n, m)
		}
	})

	return selected
}

// metricFamilies groups the JSON representation of the metrics by the
// family names: counters, gauges, histograms and timers.
type metricFamilies map[string]map[string]map[string]any

// distribution is implemented by the histogram and the timer snapshots.
type distribution interface {
	Count() int64
	Min() int64
	Max() int64
	Mean() float64
	StdDev() float64
	Percentiles([]float64) []float64
}

func distributionValues(d distribution) map[string]any {
	ps := d.Percentiles(percentiles)
	return map[string]any{
		"count":  d.Count(),
		"min":    d.Min(),
		"max":    d.Max(),
		"mean":   d.Mean(),
		"stddev": d.StdDev(),
		"median": ps[0],
		"75%":    ps[1],
		"95%":    ps[2],
		"99%":    ps[3],
		"99.9%":  ps[4],
	}
}

func (f metricFamilies) add(name string, metric any) {
	var (
		family string
		values map[string]any
	)

	switch m := metric.(type) {
	case metrics.Counter:
		family = "counters"
		values = map[string]any{"count": m.Snapshot().Count()}
	case metrics.Gauge:
		family = "gauges"
		values = map[string]any{"value": m.Snapshot().Value()}
	case metrics.GaugeFloat64:
		family = "gauges"
		values = map[string]any{"value": m.Snapshot().Value()}
	case metrics.Histogram:
		family = "histograms"
		values = distributionValues(m.Snapshot())
	case metrics.Timer:
		t := m.Snapshot()
		family = "timers"
		values = distributionValues(t)
		values["1m.rate"] = t.Rate1()
		values["5m.rate"] = t.Rate5()
		values["15m.rate"] = t.Rate15()
		values["mean.rate"] = t.RateMean()
	default:
		return
	}

	if f[family] == nil {
		f[family] = make(map[string]map[string]any)
	}

	f[family][name] = values
}
