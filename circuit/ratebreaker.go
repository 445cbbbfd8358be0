package circuit

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/zalando/failrate/metrics"
)

// rateBreaker records the outcomes in the closed and half-open states into a
// failure rate counter, and trips the underlying gobreaker when a full window
// reaches the threshold percentage. Every time the breaker opens, the window
// is cleared.
type rateBreaker struct {
	gobreakerWrap
	settings  BreakerSettings
	threshold float64
	metrics   metrics.Metrics
	gaugeKey  string

	mx      sync.Mutex
	counter *FailureRateCounter
}

func newRate(s BreakerSettings, m metrics.Metrics) *rateBreaker {
	window := s.Window
	if window <= 0 {
		window = 1
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = float64(s.Failures) * 100 / float64(window)
	}

	b := &rateBreaker{
		settings:  s,
		threshold: threshold,
		metrics:   m,
		gaugeKey:  fmt.Sprintf(metrics.KeyBreakerFailureRate, metrics.HostForKey(s.Host)),
		counter:   NewFailureRateCounter(window),
	}

	b.gobreakerWrap = newGobreaker(s, m, func(gobreaker.Counts) bool { return b.readyToTrip() }, b.stateChanged)
	return b
}

func (b *rateBreaker) readyToTrip() bool {
	b.mx.Lock()
	defer b.mx.Unlock()

	report := b.counter.Report()
	p, ok := report.Percent()
	if !ok || p < b.threshold {
		return false
	}

	log.Infof("circuit breaker open: %v, %v", b.settings, report)
	return true
}

func (b *rateBreaker) stateChanged(to State) {
	if to != StateOpen {
		return
	}

	b.mx.Lock()
	defer b.mx.Unlock()
	b.counter.Reset()
}

func (b *rateBreaker) record(success bool) {
	b.mx.Lock()
	report := b.counter.Record(success)
	b.mx.Unlock()

	if p, ok := report.Percent(); ok {
		b.metrics.UpdateGauge(b.gaugeKey, p)
	}
}

func (b *rateBreaker) Allow() (func(bool), bool) {
	done, ok := b.gobreakerWrap.Allow()
	if !ok {
		return nil, false
	}

	return func(success bool) {
		b.record(success)
		done(success)
	}, true
}

func (b *rateBreaker) Report() FailureReport {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.counter.Report()
}
