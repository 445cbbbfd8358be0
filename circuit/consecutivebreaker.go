package circuit

import (
	"github.com/sony/gobreaker"

	"github.com/zalando/failrate/metrics"
)

type consecutiveBreaker struct {
	gobreakerWrap
	settings BreakerSettings
}

func newConsecutive(s BreakerSettings, m metrics.Metrics) *consecutiveBreaker {
	b := &consecutiveBreaker{settings: s}
	b.gobreakerWrap = newGobreaker(s, m, b.readyToTrip, nil)
	return b
}

func (b *consecutiveBreaker) readyToTrip(c gobreaker.Counts) bool {
	return int(c.ConsecutiveFailures) >= b.settings.Failures
}

func (*consecutiveBreaker) Report() FailureReport {
	return NotEnoughData
}
