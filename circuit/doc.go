/*
Package circuit implements failure rate tracking and circuit breakers on top
of it.

# Failure Rate Counter

FailureRateCounter records the outcome of the last N operations, where N is
the window size, in a ring of bits, and reports the percentage of the
failures among them. Until N outcomes were recorded, it reports
NotEnoughData, so that a few early failures never look like a high rate.
The counter is not synchronized, the breakers guard it with their own lock.

	c := circuit.NewFailureRateCounter(5)
	c.OnSuccess()         // not enough data
	c.OnFailure()         // not enough data
	...
	r := c.OnFailure()    // 40.0% failed, after the fifth outcome

# Breaker Type - Consecutive Failures

This breaker opens when the host failed at least N times in a row, where N
is the configuration of the breaker. When open, it rejects the calls during
the configured timeout. After this timeout, the breaker goes into half-open
state, where it expects that M number of calls succeed. The calls in the
half-open state are accepted concurrently. If any of the calls during the
half-open state fails, the breaker goes back to open state. If all succeed,
it goes to closed state again.

# Breaker Type - Failure Rate

The "rate breaker" works similar to the "consecutive breaker", but instead
of considering N consecutive failures for going open, it opens when the
failure rate of the last M calls reaches a threshold, where M is the
sliding window. The sliding window is not time based, it always tracks M
calls, therefore allowing the same breaker characteristics for low and high
rate hosts. The threshold is either set in percent, or calculated from the
failures as N * 100 / M. Every time the breaker opens, the window is
cleared.

# Usage

Instances of the Registry hold one or more circuit breakers and their
settings. The settings can be passed to failrate.Options, or, equivalently,
defined as command line flags.

The following command starts failrate with a global consecutive breaker
that opens after 5 failures for any host:

	failrate -breaker type=consecutive,failures=5

To set only the timeouts globally, and the rate breakers individually for
the hosts:

	failrate -breaker timeout=3m,idle-ttl=30m \
		-breaker host=foo.example.org,type=rate,window=300,failures=30 \
		-breaker host=bar.example.org,type=rate,window=120,threshold=37.5

The breaker settings can be defined in the following levels: global, based
on the host, and the settings passed to Registry.Get. The values are merged
in the same order so, that the global settings serve as defaults for the
host settings, and the result of the global and host settings serve as
defaults for the requested settings. Setting global values happens the same
way as setting host values, but leaving the Host field empty. Settings
without a type take the type of their defaults together with its window,
failures and threshold values.

# Settings - Type

It can be ConsecutiveFailures, FailureRate or Disabled, where the first two
values select which breaker to use, while the Disabled value can override a
global configuration disabling the circuit breaker for the specific host.

Command line name: type. Possible command line values: consecutive, rate,
disabled.

# Settings - Host

The Host field indicates to which host should the current set of settings
be applied. Leaving it empty indicates global settings.

Command line name: host.

# Settings - Window

The window value sets the size of the sliding window of the failure rate
breaker.

Command line name: window. Possible command line values: any positive
integer.

# Settings - Failures

The failures value sets the max failure count for both the "consecutive"
and "rate" breakers.

Command line name: failures. Possible command line values: any positive
integer.

# Settings - Threshold

The failure percentage of a full window that opens the rate breaker. When
set, it takes precedence over the failures.

Command line name: threshold. Possible command line values: a number in
the range (0, 100].

# Settings - Timeout

With the timeout we can set how long the breaker should stay open, before
becoming half-open.

Command line name: timeout. Possible command line values: any positive
integer as milliseconds or duration string, e.g. 15m30s.

# Settings - Half-Open Requests

Defines the number of calls expected to succeed while the circuit breaker
is in the half-open state.

Command line name: half-open-requests. Possible command line values: any
positive integer.

# Settings - Idle TTL

Defines the idle timeout after which a circuit breaker gets recycled, if it
wasn't used.

Command line name: idle-ttl. Possible command line values: any positive
integer as milliseconds or duration string, e.g. 15m30s.

# Metrics

The breakers report the number of successful, failed and rejected calls,
the state transitions, and the failure rate of full windows, under the
circuit.<host> prefix of the keys.

# Registry

The active circuit breakers are stored in a registry. They are created
on-demand, for the requested settings. The registry synchronizes access to
the shared circuit breakers. When the registry detects that a circuit
breaker is idle, it replaces it, this way avoiding that an old series of
failures would cause the circuit breaker go open for an unreasonably low
number of failures. The registry also makes sure to cleanup idle circuit
breakers that are not requested anymore, passively, whenever a new circuit
breaker is created.
*/
package circuit
