// Copyright 2015 Zalando SE
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package failrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zalando/failrate/circuit"
	"github.com/zalando/failrate/logging"
	"github.com/zalando/failrate/metrics"
)

const (
	defaultReadHeaderTimeoutServer = 60 * time.Second
	defaultShutdownTimeout         = 5 * time.Second

	stdinName = "-"
)

// Options to run a replay.
type Options struct {

	// Files to read the outcomes from, in order. When empty, or when
	// an item is "-", Stdin is used. Files with the .gz, .zst or .br
	// extension are decompressed.
	Inputs []string

	// Reader used instead of the standard input. Defaults to
	// os.Stdin.
	Stdin io.Reader

	// Writer receiving one line for every replayed outcome. Defaults
	// to os.Stdout.
	Output io.Writer

	// When set, the output is written to this file instead of
	// Output.
	OutputFile string

	// Breaker settings. Settings with the Host field set apply to
	// that host only, the ones without it to every host. The settings
	// of the same host are merged, the first one wins.
	Breakers []circuit.BreakerSettings

	// Network address used for exposing the /metrics endpoint while
	// replaying. When not set, no listener is started.
	SupportListener string

	// Metrics formats exposed on the support listener, "codahale"
	// and/or "prometheus". Defaults to codahale.
	MetricsFlavours []string

	// Common prefix of the metrics keys.
	MetricsPrefix string

	// If set, Go runtime metrics are collected in addition to the
	// breaker metrics.
	EnableRuntimeMetrics bool

	// If set, garbage collector metrics are collected.
	EnableDebugGcMetrics bool

	// If set, the Coda Hale timers use an exponentially decaying
	// sample.
	MetricsUseExpDecaySample bool

	// Buckets of the Prometheus histograms.
	HistogramMetricBuckets []float64

	// When set, the metrics are collected here, and the flavour
	// options are ignored.
	MetricsBackend metrics.Metrics

	// Logger for the progress of the replay. Defaults to the
	// standard logger.
	Log logging.Logger
}

func (o Options) metricsOptions() (metrics.Options, error) {
	var format metrics.Kind
	for _, f := range o.MetricsFlavours {
		k := metrics.ParseMetricsKind(f)
		if k == metrics.UnkownKind {
			return metrics.Options{}, fmt.Errorf("invalid metrics flavour: %s", f)
		}

		format |= k
	}

	if format == metrics.UnkownKind {
		format = metrics.CodaHaleKind
	}

	return metrics.Options{
		Format:               format,
		Prefix:               o.MetricsPrefix,
		EnableRuntimeMetrics: o.EnableRuntimeMetrics,
		EnableDebugGcMetrics: o.EnableDebugGcMetrics,
		UseExpDecaySample:    o.MetricsUseExpDecaySample,
		HistogramBuckets:     o.HistogramMetricBuckets,
	}, nil
}

func (o Options) inputs() []string {
	if len(o.Inputs) == 0 {
		return []string{stdinName}
	}

	return o.Inputs
}

func (o Options) openOutput() (io.WriteCloser, error) {
	if o.OutputFile != "" {
		f, err := os.Create(o.OutputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}

		return f, nil
	}

	out := o.Output
	if out == nil {
		out = os.Stdout
	}

	return nopWriteCloser{out}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newSupportHandler(o metrics.Options, m metrics.Metrics) http.Handler {
	return logging.NewHandler(metrics.NewDefaultHandler(o, m))
}

// replayInputs processes the inputs in order. The output is flushed and
// the summary is logged even when an input fails.
func replayInputs(ctx context.Context, o Options, r *replay) (err error) {
	defer func() {
		if ferr := r.finish(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	for _, name := range o.inputs() {
		in, err := o.openInput(name)
		if err != nil {
			return err
		}

		displayName := name
		if name == "" || name == stdinName {
			displayName = "stdin"
		}

		err = r.input(ctx, displayName, in)
		in.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// Run replays the outcomes read from the inputs through the circuit
// breakers of their hosts, and writes the outcome, the failure report and
// the breaker state for every event. It returns when every input was
// processed, on the first error, or when the context is canceled. The
// lines written before an error are always flushed to the output.
//
// The context is checked between the input lines, so a replay waiting
// for the next line of a blocking input, e.g. the standard input of an
// interactive session, returns only after that line arrives or the
// input is closed.
func Run(ctx context.Context, o Options) (err error) {
	lg := o.Log
	if lg == nil {
		lg = logging.New()
	}

	lg = lg.WithFields(map[string]any{"replay": uuid.NewString()})

	mo, err := o.metricsOptions()
	if err != nil {
		return err
	}

	m := o.MetricsBackend
	if m == nil {
		m = metrics.NewMetrics(mo)
		defer m.Close()
	}

	for _, s := range o.Breakers {
		lg.Debugf("breaker settings: %v", s)
	}

	registry := circuit.NewRegistry(circuit.Options{
		HostSettings: o.Breakers,
		Metrics:      m,
	})

	out, err := o.openOutput()
	if err != nil {
		return err
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	var l net.Listener
	if o.SupportListener != "" {
		l, err = net.Listen("tcp", o.SupportListener)
		if err != nil {
			return fmt.Errorf("failed to start support listener: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	replayDone := make(chan struct{})
	if l != nil {
		server := &http.Server{
			Handler:           newSupportHandler(mo, m),
			ReadHeaderTimeout: defaultReadHeaderTimeoutServer,
		}

		g.Go(func() error {
			lg.Infof("support listener on %v", l.Addr())
			if err := server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("support listener failed: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-replayDone:
			}

			sctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			return server.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		defer close(replayDone)
		return replayInputs(gctx, o, newReplay(registry, m, lg, out))
	})

	return g.Wait()
}
