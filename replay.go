package failrate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/zalando/failrate/circuit"
	"github.com/zalando/failrate/logging"
	"github.com/zalando/failrate/metrics"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"

	noReport     = "-"
	stateNoBreak = "disabled"
)

type replayStats struct {
	events, succeeded, failed, rejected int
}

type replay struct {
	registry *circuit.Registry
	metrics  metrics.Metrics
	log      logging.Logger
	out      *bufio.Writer
	hosts    map[string]*circuit.Breaker
	stats    replayStats
}

func newReplay(r *circuit.Registry, m metrics.Metrics, l logging.Logger, out io.Writer) *replay {
	return &replay{
		registry: r,
		metrics:  m,
		log:      l,
		out:      bufio.NewWriter(out),
		hosts:    make(map[string]*circuit.Breaker),
	}
}

func (r *replay) event(e event) error {
	r.stats.events++

	b := r.registry.Get(circuit.BreakerSettings{Host: e.host})
	r.hosts[e.host] = b

	outcome := outcomeFailure
	if e.success {
		outcome = outcomeSuccess
	}

	if b == nil {
		r.count(outcome)
		_, err := fmt.Fprintf(r.out, "%s\t%s\t%s\t%s\n", e.host, outcome, noReport, stateNoBreak)
		return err
	}

	done, ok := b.Allow()
	if ok {
		done(e.success)
	} else {
		outcome = outcomeRejected
	}

	r.count(outcome)
	_, err := fmt.Fprintf(r.out, "%s\t%s\t%v\t%v\n", e.host, outcome, b.Report(), b.State())
	return err
}

func (r *replay) count(outcome string) {
	switch outcome {
	case outcomeSuccess:
		r.stats.succeeded++
	case outcomeFailure:
		r.stats.failed++
	default:
		r.stats.rejected++
	}
}

func (r *replay) input(ctx context.Context, name string, in io.Reader) error {
	defer r.metrics.MeasureSince(metrics.KeyReplayDuration, time.Now())

	s := bufio.NewScanner(in)
	var n int
	for s.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}

		e, ok, err := parseEvent(s.Text())
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, n, err)
		}

		if !ok {
			continue
		}

		if err := r.event(e); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	r.log.Debugf("replayed %d lines from %s", n, name)
	return nil
}

func (r *replay) finish() error {
	if err := r.out.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	r.log.Infof(
		"replayed %d events: %d succeeded, %d failed, %d rejected",
		r.stats.events,
		r.stats.succeeded,
		r.stats.failed,
		r.stats.rejected,
	)

	for _, h := range slices.Sorted(maps.Keys(r.hosts)) {
		b := r.hosts[h]
		if b == nil {
			r.log.Debugf("%s: no breaker", h)
			continue
		}

		r.log.WithFields(map[string]any{"host": h}).Infof("breaker %v: %v, %v", b.Settings(), b.State(), b.Report())
	}

	return nil
}
