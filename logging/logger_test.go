package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/zalando/failrate/logging"
)

func TestLogger(t *testing.T) {
	l := logrus.New()

	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	log := logging.NewWithLogger(l)

	for _, test := range []struct {
		log    func()
		suffix string
	}{
		{func() { log.Error("error") }, `msg=error`},
		{func() { log.Errorf("errorf: %s", "foo") }, `msg="errorf: foo"`},
		{func() { log.Warn("warn") }, `msg=warn`},
		{func() { log.Warnf("warnf: %s", "foo") }, `msg="warnf: foo"`},
		{func() { log.Info("info") }, `msg=info`},
		{func() { log.Infof("infof: %s", "foo") }, `msg="infof: foo"`},
		{func() { log.Debug("debug") }, `msg=debug`},
		{func() { log.Debugf("debugf: %s", "foo") }, `msg="debugf: foo"`},
	} {
		test.log()
		s := strings.TrimSpace(buf.String())
		buf.Reset()
		if !strings.HasSuffix(s, test.suffix) {
			t.Fatalf("want suffix %q, got %q", test.suffix, s)
		}
	}
}

func TestLoggerWithFields(t *testing.T) {
	l := logrus.New()

	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	log := logging.NewWithLogger(l)
	log.WithFields(map[string]any{"host": "foo"}).Info("rejected")
	if s := strings.TrimSpace(buf.String()); s != `level=info msg=rejected host=foo` {
		t.Fatalf("unexpected entry: %q", s)
	}

	buf.Reset()
	log.Info("plain")
	if s := strings.TrimSpace(buf.String()); s != `level=info msg=plain` {
		t.Fatalf("fields leaked to the parent logger: %q", s)
	}
}
