package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zalando/failrate/metrics"
)

// flavourFlag is the comma separated list of the exposed metrics formats.
// The names are validated against the supported backends, and repeated
// names are dropped.
type flavourFlag struct {
	flavours []string
}

func (f *flavourFlag) set(values []string) error {
	var flavours []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || slices.Contains(flavours, v) {
			continue
		}

		if k := metrics.ParseMetricsKind(v); k != metrics.CodaHaleKind && k != metrics.PrometheusKind {
			return fmt.Errorf("invalid metrics flavour: %s", v)
		}

		flavours = append(flavours, v)
	}

	f.flavours = flavours
	return nil
}

func (f *flavourFlag) Set(value string) error {
	return f.set(strings.Split(value, ","))
}

func (f *flavourFlag) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		return f.set(list)
	}

	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}

	return f.Set(value)
}

func (f *flavourFlag) String() string {
	if f == nil {
		return ""
	}

	return strings.Join(f.flavours, ",")
}
