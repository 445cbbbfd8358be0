package metrics

import (
	"mime"
	"net/http"
	"strings"
	"time"
)

const codaHaleContentType = "application/codahale+json"

// All records every measurement in both a Coda Hale and a Prometheus
// backend. Its handler serves the Coda Hale JSON to the clients accepting
// application/codahale+json, and the Prometheus text format to the rest.
type All struct {
	codaHale   *CodaHale
	prometheus *Prometheus
	backends   []Metrics
}

func NewAll(o Options) *All {
	c, p := NewCodaHale(o), NewPrometheus(o)
	return &All{
		codaHale:   c,
		prometheus: p,
		backends:   []Metrics{c, p},
	}
}

func (a *All) each(f func(Metrics)) {
	for _, b := range a.backends {
		f(b)
	}
}

func (a *All) MeasureSince(key string, start time.Time) {
	a.each(func(m Metrics) { m.MeasureSince(key, start) })
}

func (a *All) IncCounter(key string) {
	a.each(func(m Metrics) { m.IncCounter(key) })
}

func (a *All) IncCounterBy(key string, value int64) {
	a.each(func(m Metrics) { m.IncCounterBy(key, value) })
}

func (a *All) UpdateGauge(key string, v float64) {
	a.each(func(m Metrics) { m.UpdateGauge(key, v) })
}

func (a *All) Close() {
	a.each(Metrics.Close)
}

func (a *All) RegisterHandler(path string, mux *http.ServeMux) {
	codaHale := a.codaHale.getHandler(strings.TrimSuffix(path, "/"))
	prometheus := a.prometheus.getHandler()
	mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if acceptsCodaHale(r) {
			codaHale.ServeHTTP(w, r)
			return
		}

		prometheus.ServeHTTP(w, r)
	}))
}

func acceptsCodaHale(r *http.Request) bool {
	for _, a := range strings.Split(r.Header.Get("Accept"), ",") {
		if t, _, err := mime.ParseMediaType(a); err == nil && t == codaHaleContentType {
			return true
		}
	}

	return false
}
