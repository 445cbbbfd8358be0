/*
Package failrate provides a failure rate circuit breaker and a tool to
replay recorded call outcomes through it.

The core of the module is the FailureRateCounter in the circuit package.
It keeps the outcomes of the last N calls in a packed ring of bits, and
reports the percentage of the failed ones, once the window was filled.
The circuit package builds rate and consecutive failure breakers on top
of it, and maintains them per host in a registry.

The Run function of this package reads events from files or from the
standard input, one per line:

	# comments and blank lines are skipped
	api.example.org   success
	api.example.org   503
	www.example.org   fail

The outcome is one of success, ok, s, 0 or 2xx for a successful call, one
of failure, fail, f, 1 or 5xx for a failed one, or a numeric HTTP status
code, where the codes from 500 are failures.

For every event, the breaker of the host is asked whether the call is
allowed. When it is, the outcome is recorded, otherwise the call counts as
rejected. The output contains a tab separated line per event:

	api.example.org	success	not enough data	closed
	api.example.org	failure	50.0% failed	open
	api.example.org	rejected	not enough data	open

The breaker settings, the metrics exposed on the support listener, and
the logging are configured in the config package, and the command in
cmd/failrate wires them together.
*/
package failrate
