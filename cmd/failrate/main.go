/*
This command replays recorded call outcomes through failure rate and
consecutive failure circuit breakers.

For the list of command line options, run:

	failrate -help

For example, to replay the outcomes of a log file through a rate breaker
opening at 25% failures among the last 100 calls of every host:

	failrate -input outcomes.txt -breaker type=rate,window=100,threshold=25

For details about the input and the output format, please see the
documentation of the root failrate package.
*/
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/failrate"
	"github.com/zalando/failrate/config"
	"github.com/zalando/failrate/logging"
)

func openLog(name string) (io.Writer, error) {
	switch name {
	case "":
		return nil, nil
	case "/dev/stdout", "stdout":
		return os.Stdout, nil
	case "/dev/stderr", "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	}
}

func initLog(cfg *config.Config) error {
	applicationLog, err := openLog(cfg.ApplicationLog)
	if err != nil {
		return err
	}

	accessLog, err := openLog(cfg.AccessLog)
	if err != nil {
		return err
	}

	logging.Init(logging.Options{
		ApplicationLogPrefix:      cfg.ApplicationLogPrefix,
		ApplicationLogOutput:      applicationLog,
		ApplicationLogJSONEnabled: cfg.ApplicationLogJSONEnabled,
		AccessLogOutput:           accessLog,
		AccessLogDisabled:         cfg.AccessLogDisabled,
		AccessLogJSONEnabled:      cfg.AccessLogJSONEnabled,
	})

	return nil
}

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Error processing config: %s", err)
	}

	log.SetLevel(cfg.ApplicationLogLevel)
	if err := initLog(cfg); err != nil {
		log.Fatalf("Error initializing the logs: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := failrate.Run(ctx, cfg.ToOptions())
	if errors.Is(err, context.Canceled) {
		log.Info("replay canceled")
		return
	}

	if err != nil {
		log.Fatal(err)
	}
}
