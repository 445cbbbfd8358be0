package circuit

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/zalando/failrate/metrics"
)

// wrapper for changing interface:
type gobreakerWrap struct {
	gb *gobreaker.TwoStepCircuitBreaker
}

// newGobreaker creates a two-step gobreaker. The optional onStateChange is
// called after the transition was logged and counted, while gobreaker still
// holds its lock, so it must not call back into the breaker.
func newGobreaker(
	s BreakerSettings,
	m metrics.Metrics,
	readyToTrip func(gobreaker.Counts) bool,
	onStateChange func(State),
) gobreakerWrap {
	key := metrics.HostForKey(s.Host)
	return gobreakerWrap{gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        s.Host,
		MaxRequests: uint32(s.HalfOpenRequests),
		Timeout:     s.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Infof("circuit breaker %v went from %v to %v", name, from.String(), to.String())
			m.IncCounter(fmt.Sprintf(metrics.KeyBreakerState, key, stateOf(to)))
			if onStateChange != nil {
				onStateChange(stateOf(to))
			}
		},
	})}
}

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

func (w gobreakerWrap) Allow() (func(bool), bool) {
	done, err := w.gb.Allow()

	// this error can only indicate that the breaker is not closed
	if err != nil {
		return nil, false
	}

	return done, true
}

func (w gobreakerWrap) State() State {
	return stateOf(w.gb.State())
}
