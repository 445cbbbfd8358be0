package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zalando/failrate"
	"github.com/zalando/failrate/circuit"
)

func defaultConfig(with func(*Config)) *Config {
	cfg := &Config{
		ConfigFile:                "",
		MetricsPrefix:             "failrate.",
		HistogramMetricBuckets:    prometheus.DefBuckets,
		ApplicationLogLevel:       log.InfoLevel,
		ApplicationLogLevelString: "INFO",
		ApplicationLogPrefix:      "[APP]",
	}

	if with != nil {
		with(cfg)
	}

	return cfg
}

func diffConfig(got, want *Config) string {
	return cmp.Diff(got, want,
		cmp.AllowUnexported(flavourFlag{}),
		cmpopts.IgnoreFields(Config{}, "Flags"),
	)
}

func Test_NewConfigWithArgs(t *testing.T) {
	for _, tt := range []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"failrate"},
			want: defaultConfig(nil),
		},
		{
			name:    "test args len bigger than 0 throws an error",
			args:    []string{"failrate", "arg1"},
			wantErr: true,
		},
		{
			name:    "test non-existing config file throw an error",
			args:    []string{"failrate", "-config-file=non-existent.yaml"},
			wantErr: true,
		},
		{
			name:    "test invalid breaker",
			args:    []string{"failrate", "-breaker", "type=rate,failures=3"},
			wantErr: true,
		},
		{
			name:    "test host threshold without type",
			args:    []string{"failrate", "-breaker", "type=rate,window=10,failures=3", "-breaker", "host=foo.example.org,threshold=12.5"},
			wantErr: true,
		},
		{
			name: "test flags",
			args: []string{
				"failrate",
				"-input", "a.txt",
				"-input", "-",
				"-breaker", "type=rate,window=10,failures=3",
				"-breaker", "host=foo.example.org,type=rate,window=20,threshold=12.5",
				"-breaker", "host=bar.example.org,timeout=30s",
				"-breaker-defaults", "{type: consecutive, failures: 5, idle-ttl: 10m}",
				"-metrics-flavour", "Prometheus, prometheus",
				"-application-log-level", "WARN",
			},
			want: defaultConfig(func(c *Config) {
				c.Inputs = inputFlag{"a.txt", "-"}
				c.Breakers = breakerFlags{{
					Type:     circuit.FailureRate,
					Window:   10,
					Failures: 3,
				}, {
					Host:      "foo.example.org",
					Type:      circuit.FailureRate,
					Window:    20,
					Threshold: 12.5,
				}, {
					Host:    "bar.example.org",
					Timeout: 30 * time.Second,
				}}
				c.BreakerDefaults = &circuit.BreakerSettings{
					Type:     circuit.ConsecutiveFailures,
					Failures: 5,
					IdleTTL:  10 * time.Minute,
				}
				c.MetricsFlavour.flavours = []string{"prometheus"}
				c.ApplicationLogLevel = log.WarnLevel
				c.ApplicationLogLevelString = "WARN"
			}),
		},
		{
			name: "test only valid flag overwrite yaml file",
			args: []string{
				"failrate",
				"-config-file=testdata/test.yaml",
				"-output=override.tsv",
				"-breaker", "host=baz.example.org,type=disabled",
			},
			want: defaultConfig(func(c *Config) {
				c.ConfigFile = "testdata/test.yaml"
				c.Inputs = inputFlag{"testdata/events.txt"}
				c.OutputFile = "override.tsv"
				c.SupportListener = ":9911"
				c.MetricsFlavour.flavours = []string{"codahale", "prometheus"}
				c.BreakerDefaults = &circuit.BreakerSettings{
					Type:      circuit.FailureRate,
					Window:    100,
					Threshold: 25,
					Timeout:   10 * time.Second,
				}
				c.Breakers = breakerFlags{{
					Host:     "foo.example.org",
					Type:     circuit.FailureRate,
					Window:   300,
					Failures: 30,
				}, {
					Host:     "bar.example.org",
					Type:     circuit.ConsecutiveFailures,
					Failures: 5,
				}, {
					Host: "baz.example.org",
					Type: circuit.BreakerDisabled,
				}}
				c.ApplicationLogLevel = log.DebugLevel
				c.ApplicationLogLevelString = "DEBUG"
			}),
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := cfg.ParseArgs(tt.args[0], tt.args[1:])

			if (err != nil) != tt.wantErr {
				t.Fatalf("config.NewConfig() error: %v, wantErr: %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				if d := diffConfig(cfg, tt.want); d != "" {
					t.Errorf("config.NewConfig() want vs got:\n%s", d)
				}
			}
		})
	}
}

func TestToOptions(t *testing.T) {
	cfg := NewConfig()
	err := cfg.ParseArgs("failrate", []string{
		"-config-file=testdata/test.yaml",
		"-runtime-metrics",
		"-histogram-metric-buckets=1,0.1",
	})
	require.NoError(t, err)

	o := cfg.ToOptions()
	assert.Equal(t, failrate.Options{
		Inputs:     []string{"testdata/events.txt"},
		OutputFile: "out.tsv",
		Breakers: []circuit.BreakerSettings{{
			Host:     "foo.example.org",
			Type:     circuit.FailureRate,
			Window:   300,
			Failures: 30,
		}, {
			Host:     "bar.example.org",
			Type:     circuit.ConsecutiveFailures,
			Failures: 5,
		}, {
			Type:      circuit.FailureRate,
			Window:    100,
			Threshold: 25,
			Timeout:   10 * time.Second,
		}},
		SupportListener:        ":9911",
		MetricsFlavours:        []string{"codahale", "prometheus"},
		MetricsPrefix:          "failrate.",
		EnableRuntimeMetrics:   true,
		HistogramMetricBuckets: []float64{0.1, 1},
	}, o)
}

func TestToOptionsDefaultFlavour(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ParseArgs("failrate", nil))
	assert.Equal(t, []string{"codahale"}, cfg.ToOptions().MetricsFlavours)
	assert.Nil(t, cfg.ToOptions().Inputs)
}

func Test_Validate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		change  func(c *Config)
		want    error
		wantErr bool
	}{
		{
			name: "test wrong loglevel",
			change: func(c *Config) {
				c.ApplicationLogLevelString = "wrongLevel"
			},
			want:    errors.New(`not a valid logrus Level: "wrongLevel"`),
			wantErr: true,
		},
		{
			name: "test valid config",
			change: func(c *Config) {
				c.HistogramMetricBucketsString = ""
				c.ApplicationLogLevel = log.InfoLevel
				c.ApplicationLogLevelString = "INFO"
			},
			want:    nil,
			wantErr: false,
		},
		{
			name: "test wrong HistoGramBuckets",
			change: func(c *Config) {
				c.HistogramMetricBucketsString = "5,10,abc"
			},
			wantErr: true,
			want:    errors.New(`unable to parse histogram-metric-buckets: strconv.ParseFloat: parsing "abc": invalid syntax`),
		},
		{
			name: "test rate breaker without window",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Type: circuit.FailureRate, Failures: 3}}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, rate breaker without window: type=rate,failures=3`),
		},
		{
			name: "test negative failures",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Type: circuit.ConsecutiveFailures, Failures: -3}}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, negative value: type=consecutive`),
		},
		{
			name: "test threshold out of range",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Type: circuit.FailureRate, Window: 10, Threshold: 120}}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, threshold out of range: type=rate,window=10,threshold=120`),
		},
		{
			name: "test host breaker fields without type",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Host: "foo.example.org", Threshold: 12.5}}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, window, failures or threshold without type: host=foo.example.org`),
		},
		{
			name: "test host breaker timing without type",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Host: "foo.example.org", Timeout: time.Second, IdleTTL: time.Minute}}
			},
		},
		{
			name: "test rate breaker failures exceed the window",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Type: circuit.FailureRate, Window: 10, Failures: 12}}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, rate breaker failures exceed the window: type=rate,window=10,failures=12`),
		},
		{
			name: "test rate breaker threshold overrides failures",
			change: func(c *Config) {
				c.Breakers = breakerFlags{{Type: circuit.FailureRate, Window: 10, Failures: 12, Threshold: 30}}
			},
		},
		{
			name: "test rate breaker without failures or threshold",
			change: func(c *Config) {
				c.BreakerDefaults = &circuit.BreakerSettings{Type: circuit.FailureRate, Window: 10}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker settings, rate breaker without failures or threshold: type=rate,window=10`),
		},
		{
			name: "test breaker defaults with host",
			change: func(c *Config) {
				c.BreakerDefaults = &circuit.BreakerSettings{Type: circuit.ConsecutiveFailures, Host: "foo"}
			},
			wantErr: true,
			want:    errors.New(`invalid breaker defaults, host set: foo`),
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.change(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("config.NewConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && err.Error() != tt.want.Error() {
				t.Errorf("Failed to get wanted error, got: %v, want: %v", err, tt.want)
			}
		})
	}
}

func Test_parseHistogramBuckets(t *testing.T) {
	for _, tt := range []struct {
		name    string
		args    string
		want    []float64
		wantErr bool
	}{
		{
			name: "test parse empty",
			args: "",
			want: prometheus.DefBuckets,
		},
		{
			name:    "test parse 1",
			args:    "1",
			want:    []float64{1},
			wantErr: false,
		},
		{
			name:    "test parse unsorted",
			args:    "2, 1.66,1.5,1.33,1",
			want:    []float64{1, 1.33, 1.5, 1.66, 2},
			wantErr: false,
		},
		{
			name:    "test parse invalid",
			args:    "1,a",
			wantErr: true,
		}} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := new(Config)
			got, err := cfg.parseHistogramBuckets(tt.args, prometheus.DefBuckets)
			if !reflect.DeepEqual(got, tt.want) || (tt.wantErr && err == nil) || (!tt.wantErr && err != nil) {
				t.Errorf("Failed to parse histogram buckets: Want %v, got %v, err %v", tt.want, got, err)
			}
		})
	}
}
