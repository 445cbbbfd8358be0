package failrate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidEvent is returned for input lines that don't consist of
	// a host and an outcome.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidOutcome is returned for outcomes that are neither one of
	// the known names nor an HTTP status code.
	ErrInvalidOutcome = errors.New("invalid outcome")
)

type event struct {
	host    string
	success bool
}

func parseOutcome(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "success", "ok", "s", "0", "2xx":
		return true, nil
	case "failure", "fail", "f", "1", "5xx":
		return false, nil
	}

	code, err := strconv.Atoi(s)
	if err != nil || code < 100 || code > 599 {
		return false, fmt.Errorf("%w: %s", ErrInvalidOutcome, s)
	}

	return code < 500, nil
}

// parseEvent parses a single line of the input. It returns false for blank
// lines and comments.
func parseEvent(line string) (event, bool, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return event{}, false, nil
	case 2:
	default:
		return event{}, false, fmt.Errorf("%w: %q", ErrInvalidEvent, strings.TrimSpace(line))
	}

	success, err := parseOutcome(fields[1])
	if err != nil {
		return event{}, false, err
	}

	return event{host: fields[0], success: success}, true, nil
}
