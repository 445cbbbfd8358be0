package metrics

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Kind selects the metrics backend.
type Kind int

const (
	UnkownKind     Kind = 0
	CodaHaleKind   Kind = 1 << 0
	PrometheusKind Kind = 1 << 1
	AllKind             = CodaHaleKind | PrometheusKind
)

func (k Kind) String() string {
	switch k {
	case AllKind:
		return "all"
	case CodaHaleKind:
		return "codahale"
	case PrometheusKind:
		return "prometheus"
	default:
		return "unknown"
	}
}

// ParseMetricsKind returns the backend kind by its name. Unknown names
// result in UnkownKind.
func ParseMetricsKind(t string) Kind {
	switch t {
	case "codahale":
		return CodaHaleKind
	case "prometheus":
		return PrometheusKind
	case "all":
		return AllKind
	default:
		return UnkownKind
	}
}

const (
	// KeyBreakerFailureRate receives the failure percentage of a rate
	// breaker, every time a full window report is available.
	KeyBreakerFailureRate = "circuit.%s.failurerate"

	// KeyBreakerOutcome counts the outcomes recorded by a breaker, with
	// the host and "success" or "failure".
	KeyBreakerOutcome = "circuit.%s.%s"

	// KeyBreakerRejected counts the calls rejected by an open breaker.
	KeyBreakerRejected = "circuit.%s.rejected"

	// KeyBreakerState counts the transitions of a breaker into a state.
	KeyBreakerState = "circuit.%s.state.%s"

	// KeyBreakerEvicted counts the idle breakers dropped by the
	// registry.
	KeyBreakerEvicted = "circuit.evicted"

	// KeyReplayDuration measures how long the processing of an input
	// took.
	KeyReplayDuration = "replay.duration"
)

// Metrics is the interface of the metrics backends. Implementations are
// safe for concurrent use.
type Metrics interface {
	MeasureSince(key string, start time.Time)
	IncCounter(key string)
	IncCounterBy(key string, value int64)
	UpdateGauge(key string, value float64)
	RegisterHandler(path string, handler *http.ServeMux)
	Close()
}

// Options for initializing metrics collection.
type Options struct {
	// the metrics exposing format
	Format Kind

	// Common prefix for the keys of the different
	// collected metrics.
	Prefix string

	// If set, garbage collector metrics are collected
	// in addition to the breaker metrics.
	EnableDebugGcMetrics bool

	// If set, Go runtime metrics are collected in
	// addition to the breaker metrics.
	EnableRuntimeMetrics bool

	// If set, the Coda Hale timers use an exponentially
	// decaying sample instead of a uniform one.
	UseExpDecaySample bool

	// HistogramBuckets defines buckets into which the
	// observations are counted for histogram metrics.
	// Defaults to prometheus.DefBuckets.
	HistogramBuckets []float64
}

// Default is a no-op implementation, it can be used when no metrics
// collection is configured.
var Default Metrics = NewVoid()

// NewMetrics creates a backend according to the Format of the options.
// When the format is not set, the Coda Hale backend is used.
func NewMetrics(o Options) Metrics {
	switch o.Format {
	case AllKind:
		log.Infof("Metrics using format: %s", o.Format)
		return NewAll(o)
	case PrometheusKind:
		log.Infof("Metrics using format: %s", o.Format)
		return NewPrometheus(o)
	default:
		log.Infof("Metrics using format: %s", CodaHaleKind)
		return NewCodaHale(o)
	}
}

// NewDefaultHandler returns a mux serving the collected metrics on the
// /metrics path.
func NewDefaultHandler(o Options, m Metrics) http.Handler {
	mux := http.NewServeMux()
	m.RegisterHandler("/metrics", mux)
	if o.Format != PrometheusKind {
		// Coda Hale supports lookup by key
		m.RegisterHandler("/metrics/", mux)
	}

	return mux
}
