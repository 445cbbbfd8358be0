package config

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/zalando/failrate"
	"github.com/zalando/failrate/circuit"
)

type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// input and output:
	Inputs     inputFlag `yaml:"input"`
	OutputFile string    `yaml:"output"`

	// breakers:
	Breakers        breakerFlags             `yaml:"breaker"`
	BreakerDefaults *circuit.BreakerSettings `yaml:"breaker-defaults"`

	// metrics:
	SupportListener              string      `yaml:"support-listener"`
	MetricsFlavour               flavourFlag `yaml:"metrics-flavour"`
	MetricsPrefix                string      `yaml:"metrics-prefix"`
	EnableRuntimeMetrics         bool        `yaml:"runtime-metrics"`
	EnableDebugGcMetrics         bool        `yaml:"debug-gc-metrics"`
	MetricsUseExpDecaySample     bool        `yaml:"metrics-exp-decay-sample"`
	HistogramMetricBucketsString string      `yaml:"histogram-metric-buckets"`
	HistogramMetricBuckets       []float64   `yaml:"-"`

	// logging:
	ApplicationLog            string    `yaml:"application-log"`
	ApplicationLogLevel       log.Level `yaml:"-"`
	ApplicationLogLevelString string    `yaml:"application-log-level"`
	ApplicationLogPrefix      string    `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled bool      `yaml:"application-log-json-enabled"`
	AccessLog                 string    `yaml:"access-log"`
	AccessLogDisabled         bool      `yaml:"access-log-disabled"`
	AccessLogJSONEnabled      bool      `yaml:"access-log-json-enabled"`
}

const (
	defaultMetricsPrefix        = "failrate."
	defaultApplicationLogPrefix = "[APP]"
	defaultApplicationLogLevel  = "INFO"

	inputUsage           = "file to replay the outcomes from, one '<host> <outcome>' per line, can be repeated. When not set or '-', the standard input is used"
	outputUsage          = "file to write the replayed outcomes with the breaker reports to, defaults to the standard output"
	breakerDefaultsUsage = `global breaker defaults as a YAML object, e.g. -breaker-defaults='{type: rate, window: 100, threshold: 25}'. The -breaker values take precedence`
	supportListenerUsage = "network address used for exposing the /metrics endpoint while replaying. When not set, no endpoint is started"
	metricsFlavourUsage  = "metrics flavour is used to change the exposed metrics format. Supported metric formats: 'codahale' and 'prometheus', you can select both of them"
)

func NewConfig() *Config {
	cfg := new(Config)

	flag := flag.NewFlagSet("", flag.ExitOnError)
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// input and output:
	flag.Var(&cfg.Inputs, "input", inputUsage)
	flag.StringVar(&cfg.OutputFile, "output", "", outputUsage)

	// breakers:
	flag.Var(&cfg.Breakers, "breaker", breakerUsage)
	flag.Var(&defaultsFlag{settings: &cfg.BreakerDefaults}, "breaker-defaults", breakerDefaultsUsage)

	// metrics:
	flag.StringVar(&cfg.SupportListener, "support-listener", "", supportListenerUsage)
	flag.Var(&cfg.MetricsFlavour, "metrics-flavour", metricsFlavourUsage)
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", defaultMetricsPrefix, "allows setting a custom path prefix for the metrics keys")
	flag.BoolVar(&cfg.EnableRuntimeMetrics, "runtime-metrics", false, "enables reporting the Go runtime statistics")
	flag.BoolVar(&cfg.EnableDebugGcMetrics, "debug-gc-metrics", false, "enables reporting the Go garbage collector statistics exported in debug.GCStats")
	flag.BoolVar(&cfg.MetricsUseExpDecaySample, "metrics-exp-decay-sample", false, "use exponentially-decaying sample in timers")
	flag.StringVar(&cfg.HistogramMetricBucketsString, "histogram-metric-buckets", "", "use custom buckets for prometheus histograms, must be a comma-separated list of numbers")

	// logging:
	flag.StringVar(&cfg.ApplicationLog, "application-log", "", "output file for the application log. When not set, /dev/stderr is used")
	flag.StringVar(&cfg.ApplicationLogLevelString, "application-log-level", defaultApplicationLogLevel, "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", defaultApplicationLogPrefix, "prefix for each log entry")
	flag.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")
	flag.StringVar(&cfg.AccessLog, "access-log", "", "output file for the access log of the support listener, When not set, /dev/stderr is used")
	flag.BoolVar(&cfg.AccessLogDisabled, "access-log-disabled", false, "when this flag is set, no access log is printed")
	flag.BoolVar(&cfg.AccessLogJSONEnabled, "access-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	cfg.Flags = flag
	return cfg
}

func validateBreaker(s circuit.BreakerSettings) error {
	if s.Window < 0 || s.Failures < 0 || s.HalfOpenRequests < 0 || s.Timeout < 0 || s.IdleTTL < 0 {
		return fmt.Errorf("invalid breaker settings, negative value: %v", s)
	}

	if s.Type == circuit.FailureRate && s.Window == 0 {
		return fmt.Errorf("invalid breaker settings, rate breaker without window: %v", s)
	}

	if s.Threshold < 0 || s.Threshold > 100 {
		return fmt.Errorf("invalid breaker settings, threshold out of range: %v", s)
	}

	// the fields of a typeless host breaker are taken from the global
	// type, only the timing fields are kept
	if s.Host != "" && s.Type == circuit.BreakerNone && (s.Window != 0 || s.Failures != 0 || s.Threshold != 0) {
		return fmt.Errorf("invalid breaker settings, window, failures or threshold without type: host=%s", s.Host)
	}

	if s.Type == circuit.FailureRate && s.Threshold == 0 {
		switch {
		case s.Failures == 0:
			return fmt.Errorf("invalid breaker settings, rate breaker without failures or threshold: %v", s)
		case s.Failures > s.Window:
			return fmt.Errorf("invalid breaker settings, rate breaker failures exceed the window: %v", s)
		}
	}

	return nil
}

func validate(c *Config) error {
	_, err := log.ParseLevel(c.ApplicationLogLevelString)
	if err != nil {
		return err
	}

	_, err = c.parseHistogramBuckets(c.HistogramMetricBucketsString, prometheus.DefBuckets)
	if err != nil {
		return err
	}

	for _, s := range c.Breakers {
		if err := validateBreaker(s); err != nil {
			return err
		}
	}

	if c.BreakerDefaults != nil {
		if c.BreakerDefaults.Host != "" {
			return fmt.Errorf("invalid breaker defaults, host set: %s", c.BreakerDefaults.Host)
		}

		if err := validateBreaker(*c.BreakerDefaults); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	err := c.Flags.Parse(args)
	if err != nil {
		return err
	}

	// check if arguments were correctly parsed.
	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		// the repeatable flags are parsed again below
		c.Inputs = nil
		c.Breakers = nil

		err = yaml.Unmarshal(yamlFile, c)
		if err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		err = c.Flags.Parse(args)
		if err != nil {
			return err
		}
	}

	if err := validate(c); err != nil {
		return err
	}

	c.ApplicationLogLevel, _ = log.ParseLevel(c.ApplicationLogLevelString)
	c.HistogramMetricBuckets, _ = c.parseHistogramBuckets(c.HistogramMetricBucketsString, prometheus.DefBuckets)
	return nil
}

// ToOptions returns the options of the replay. The global breaker
// defaults follow the settings of the -breaker flags, so that the latter
// take precedence.
func (c *Config) ToOptions() failrate.Options {
	var breakers []circuit.BreakerSettings
	breakers = append(breakers, c.Breakers...)
	if c.BreakerDefaults != nil {
		breakers = append(breakers, *c.BreakerDefaults)
	}

	var inputs []string
	inputs = append(inputs, c.Inputs...)

	flavours := c.MetricsFlavour.flavours
	if len(flavours) == 0 {
		flavours = []string{"codahale"}
	}

	return failrate.Options{
		Inputs:                   inputs,
		OutputFile:               c.OutputFile,
		Breakers:                 breakers,
		SupportListener:          c.SupportListener,
		MetricsFlavours:          flavours,
		MetricsPrefix:            c.MetricsPrefix,
		EnableRuntimeMetrics:     c.EnableRuntimeMetrics,
		EnableDebugGcMetrics:     c.EnableDebugGcMetrics,
		MetricsUseExpDecaySample: c.MetricsUseExpDecaySample,
		HistogramMetricBuckets:   c.HistogramMetricBuckets,
	}
}

func (c *Config) parseHistogramBuckets(bucketString string, defaultBuckets []float64) ([]float64, error) {
	if bucketString == "" {
		return defaultBuckets, nil
	}

	var result []float64
	thresholds := strings.Split(bucketString, ",")
	for _, v := range thresholds {
		bucket, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse histogram-metric-buckets: %w", err)
		}
		result = append(result, bucket)
	}
	sort.Float64s(result)
	return result, nil
}
