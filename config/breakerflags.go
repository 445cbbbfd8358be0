package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/failrate/circuit"
)

const breakerUsage = `set global or host specific circuit breakers, e.g. -breaker type=rate,host=www.example.org,window=300,failures=30
	possible breaker properties:
	type: consecutive/rate/disabled (host breakers default to the global type)
	host: a host name that overrides the global for a host
	window: the size of the sliding window for the rate breaker
	failures: the number of failures for consecutive or rate breakers
	threshold: the failure percentage of a full window that opens the rate breaker, takes precedence over failures
	timeout: duration string or milliseconds while the breaker stays open
	half-open-requests: the number of requests in half-open state to succeed before getting closed again
	idle-ttl: duration string or milliseconds after the breaker is considered idle and reset
	(see also: https://pkg.go.dev/github.com/zalando/failrate/circuit)`

type breakerFlags []circuit.BreakerSettings

var errInvalidBreakerConfig = errors.New("invalid breaker config (allowed values are: consecutive, rate or disabled)")

func (b breakerFlags) String() string {
	s := make([]string, len(b))
	for i, bi := range b {
		s[i] = bi.String()
	}

	return strings.Join(s, "\n")
}

func parseDurationOrMillis(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return time.ParseDuration(v)
}

func (b *breakerFlags) Set(value string) error {
	var s circuit.BreakerSettings

	vs := strings.SplitSeq(value, ",")
	for vi := range vs {
		k, v, found := strings.Cut(vi, "=")
		if !found {
			return errInvalidBreakerConfig
		}

		switch k {
		case "type":
			switch v {
			case "consecutive":
				s.Type = circuit.ConsecutiveFailures
			case "rate":
				s.Type = circuit.FailureRate
			case "disabled":
				s.Type = circuit.BreakerDisabled
			default:
				return errInvalidBreakerConfig
			}
		case "host":
			s.Host = v
		case "window":
			i, err := strconv.Atoi(v)
			if err != nil {
				return err
			}

			s.Window = i
		case "failures":
			i, err := strconv.Atoi(v)
			if err != nil {
				return err
			}

			s.Failures = i
		case "threshold":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}

			s.Threshold = f
		case "timeout":
			d, err := parseDurationOrMillis(v)
			if err != nil {
				return err
			}

			s.Timeout = d
		case "half-open-requests":
			i, err := strconv.Atoi(v)
			if err != nil {
				return err
			}

			s.HalfOpenRequests = i
		case "idle-ttl":
			d, err := parseDurationOrMillis(v)
			if err != nil {
				return err
			}

			s.IdleTTL = d
		default:
			return errInvalidBreakerConfig
		}
	}

	*b = append(*b, s)
	return nil
}

// UnmarshalYAML accepts a single breaker or a list of breakers.
func (b *breakerFlags) UnmarshalYAML(unmarshal func(any) error) error {
	var list []circuit.BreakerSettings
	if err := unmarshal(&list); err == nil {
		*b = append(*b, list...)
		return nil
	}

	var s circuit.BreakerSettings
	if err := unmarshal(&s); err != nil {
		return err
	}

	*b = append(*b, s)
	return nil
}
