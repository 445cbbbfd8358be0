package circuit

import (
	"fmt"

	"github.com/zalando/failrate/ringbitset"
)

// FailureReport is the outcome of a failure rate calculation. It is either
// NotEnoughData, when the window was not filled yet, or a percentage of
// the failed events in the window, created with PercentFailed.
//
// The zero value is NotEnoughData. Reports can be compared with ==.
type FailureReport struct {
	percent float64
	full    bool
}

// NotEnoughData is reported until the window of a FailureRateCounter
// receives as many events as its size.
var NotEnoughData = FailureReport{}

// PercentFailed creates a report with the percentage of failed events, a
// value between 0 and 100.
func PercentFailed(p float64) FailureReport {
	return FailureReport{percent: p, full: true}
}

// Percent returns the percentage of failed events. The second return value
// is false, when the report is NotEnoughData.
func (r FailureReport) Percent() (float64, bool) {
	return r.percent, r.full
}

func (r FailureReport) String() string {
	if !r.full {
		return "not enough data"
	}

	return fmt.Sprintf("%.1f%% failed", r.percent)
}

// FailureRateCounter tracks the rate of the failed events among the last N
// events, where N is the window size.
//
// It is not safe for concurrent use. When shared, recording an event and
// using the returned report needs to happen under the same lock.
type FailureRateCounter struct {
	window *ringbitset.Ring
}

// NewFailureRateCounter creates a counter with a window of windowSize
// events. It panics when windowSize is not positive.
func NewFailureRateCounter(windowSize int) *FailureRateCounter {
	if windowSize <= 0 {
		panic(fmt.Sprintf("circuit: invalid failure rate window %d", windowSize))
	}

	return &FailureRateCounter{window: ringbitset.New(windowSize)}
}

// OnSuccess records a successful event and returns the resulting report.
func (c *FailureRateCounter) OnSuccess() FailureReport {
	c.window.SetNextBit(false)
	return c.Report()
}

// OnFailure records a failed event and returns the resulting report.
func (c *FailureRateCounter) OnFailure() FailureReport {
	c.window.SetNextBit(true)
	return c.Report()
}

// Record records an event, where success tells the outcome.
func (c *FailureRateCounter) Record(success bool) FailureReport {
	if success {
		return c.OnSuccess()
	}

	return c.OnFailure()
}

// Report returns the report for the events in the window without
// recording a new one.
func (c *FailureRateCounter) Report() FailureReport {
	if c.window.Length() < c.window.Capacity() {
		return NotEnoughData
	}

	return PercentFailed(float64(c.window.Cardinality()) * 100 / float64(c.window.Capacity()))
}

// WindowSize returns the number of events the failure rate is calculated
// from.
func (c *FailureRateCounter) WindowSize() int {
	return c.window.Capacity()
}

// Reset drops the recorded events, the following reports are NotEnoughData
// until the window fills up again.
func (c *FailureRateCounter) Reset() {
	c.window.Reset()
}
