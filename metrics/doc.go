/*
Package metrics implements the collection of the circuit breaker and
failure rate metrics.

Two backends are supported: the Go implementation of the Coda Hale
metrics library (https://github.com/rcrowley/go-metrics) and Prometheus
(https://github.com/prometheus/client_golang). They can be used
separately or both at the same time, selected with the Format field of
the Options.

The collected metrics include the last reported failure percentage of
every rate breaker, the number of the successful and failed outcomes per
host, the number of the rejected calls, and the state transitions of the
breakers. For the keys used for the different metrics, see the Key*
constants.

# Support listener

When a support listener address is configured, the command starts an
additional http listener, where the current metrics values can be
downloaded from the /metrics path. In case of the Coda Hale format, a
single metric or a group of metrics sharing a key prefix can be requested
by appending the key to the path, e.g. /metrics/circuit.
*/
package metrics
