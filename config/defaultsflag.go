package config

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/zalando/failrate/circuit"
)

// defaultsFlag parses the global breaker defaults from an inline YAML
// object. Unknown fields are rejected.
type defaultsFlag struct {
	settings **circuit.BreakerSettings
	value    string
}

func (f *defaultsFlag) Set(value string) error {
	var s circuit.BreakerSettings
	if err := yaml.UnmarshalStrict([]byte(value), &s); err != nil {
		return fmt.Errorf("failed to parse breaker defaults: %w", err)
	}

	*f.settings = &s
	f.value = value
	return nil
}

func (f *defaultsFlag) String() string {
	if f == nil {
		return ""
	}

	return f.value
}
