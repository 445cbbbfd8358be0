package metrics

import (
	"strings"

	metrics "github.com/rcrowley/go-metrics"
)

func newUniformSample() metrics.Sample {
	return metrics.NewUniformSample(defaultUniformReservoirSize)
}

func newExpDecaySample() metrics.Sample {
	return metrics.NewExpDecaySample(defaultExpDecayReservoirSize, defaultExpDecayAlpha)
}

// HostForKey escapes the separators in a host name, so that it can be
// used as a segment of a metrics key.
func HostForKey(h string) string {
	h = strings.ReplaceAll(h, ".", "_")
	h = strings.ReplaceAll(h, ":", "__")
	return h
}
