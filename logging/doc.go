/*
Package logging implements the application log setup and the access log
of the support listener.

# Application Log

The application log uses the logrus package:

https://github.com/sirupsen/logrus

To send messages to the application log, import logrus and use its
methods. Example:

	import log "github.com/sirupsen/logrus"

	func doSomething() {
		log.Errorf("nothing to do")
	}

During startup initialization, it is possible to redirect the log output
from the default /dev/stderr to another file, to set the level, to switch
to JSON entries and to set a common prefix for each log entry. Setting the
prefix may be a good idea when the access log is enabled and its output is
the same as the one of the application log, to make it easier to split the
output for diagnostics.

Components that accept a Logger can use New() to log through the same
configured logrus instance.

# Access Log

The access log prints HTTP access information of the support listener, the
one serving the metrics, in the Apache combined access log format,
extended with the duration in milliseconds. Handlers wrapped with
NewHandler log automatically.

During initialization, it is possible to redirect the access log output
from the default /dev/stderr to another file, or completely disable the
access log.
*/
package logging
