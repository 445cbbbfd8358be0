/*
Package loggingtest implements a logger that can be used in tests to wait
for and count log entries, either passed to it as a logging.Logger, or
captured from a logrus logger with Attach.
*/
package loggingtest

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zalando/failrate/logging"
)

type logSubscription struct {
	exp      string
	n        int
	response chan<- struct{}
}

type countMessage struct {
	expression string
	response   chan<- int
}

type logWatch struct {
	entries []string
	reqs    []*logSubscription
}

// TestLogger collects the log entries in memory.
type TestLogger struct {
	save   chan string
	notify chan<- logSubscription
	count  chan<- countMessage
	clear  chan struct{}
	quit   chan<- struct{}
	muted  *atomic.Bool
	fields map[string]any
}

var ErrWaitTimeout = errors.New("timeout")

func (lw *logWatch) save(e string) {
	lw.entries = append(lw.entries, e)
	for i := len(lw.reqs) - 1; i >= 0; i-- {
		req := lw.reqs[i]
		if strings.Contains(e, req.exp) {
			req.n--
			if req.n <= 0 {
				close(req.response)
				lw.reqs = append(lw.reqs[:i], lw.reqs[i+1:]...)
			}
		}
	}
}

func (lw *logWatch) notify(req logSubscription) {
	for i := len(lw.entries) - 1; i >= 0; i-- {
		if strings.Contains(lw.entries[i], req.exp) {
			req.n--
			if req.n == 0 {
				break
			}
		}
	}

	if req.n <= 0 {
		close(req.response)
	} else {
		lw.reqs = append(lw.reqs, &req)
	}
}

func (lw *logWatch) count(m countMessage) {
	var count int
	for _, e := range lw.entries {
		if strings.Contains(e, m.expression) {
			count++
		}
	}

	m.response <- count
}

func (lw *logWatch) clear() {
	lw.entries = nil
	lw.reqs = nil
}

func New() *TestLogger {
	lw := &logWatch{}
	save := make(chan string)
	notify := make(chan logSubscription)
	count := make(chan countMessage)
	clear := make(chan struct{})
	quit := make(chan struct{})

	go func() {
		for {
			select {
			case e := <-save:
				lw.save(e)
			case req := <-notify:
				lw.notify(req)
			case m := <-count:
				lw.count(m)
			case <-clear:
				lw.clear()
			case <-quit:
				return
			}
		}
	}()

	return &TestLogger{
		save:   save,
		notify: notify,
		count:  count,
		clear:  clear,
		quit:   quit,
		muted:  &atomic.Bool{},
	}
}

func (tl *TestLogger) withFields(e string) string {
	if len(tl.fields) == 0 {
		return e
	}

	return fmt.Sprintf("%s %v", e, tl.fields)
}

func (tl *TestLogger) logf(f string, a ...any) {
	if tl.muted.Load() {
		return
	}

	tl.save <- tl.withFields(fmt.Sprintf(f, a...))
}

func (tl *TestLogger) log(a ...any) {
	if tl.muted.Load() {
		return
	}

	tl.save <- tl.withFields(fmt.Sprint(a...))
}

// WaitForN blocks until n entries containing exp were logged, or the
// timeout expires.
func (tl *TestLogger) WaitForN(exp string, n int, to time.Duration) error {
	found := make(chan struct{}, 1)
	tl.notify <- logSubscription{exp, n, found}

	select {
	case <-found:
		return nil
	case <-time.After(to):
		return ErrWaitTimeout
	}
}

func (tl *TestLogger) WaitFor(exp string, to time.Duration) error {
	return tl.WaitForN(exp, 1, to)
}

// Count returns the number of entries containing expression.
func (tl *TestLogger) Count(expression string) int {
	r := make(chan int)
	tl.count <- countMessage{expression, r}
	return <-r
}

func (tl *TestLogger) Reset() {
	tl.clear <- struct{}{}
}

func (tl *TestLogger) Close() {
	close(tl.quit)
}

// Mute drops the entries logged until Unmute is called.
func (tl *TestLogger) Mute()   { tl.muted.Store(true) }
func (tl *TestLogger) Unmute() { tl.muted.Store(false) }

func (tl *TestLogger) Error(a ...any)            { tl.log(a...) }
func (tl *TestLogger) Errorf(f string, a ...any) { tl.logf(f, a...) }
func (tl *TestLogger) Warn(a ...any)             { tl.log(a...) }
func (tl *TestLogger) Warnf(f string, a ...any)  { tl.logf(f, a...) }
func (tl *TestLogger) Info(a ...any)             { tl.log(a...) }
func (tl *TestLogger) Infof(f string, a ...any)  { tl.logf(f, a...) }
func (tl *TestLogger) Debug(a ...any)            { tl.log(a...) }
func (tl *TestLogger) Debugf(f string, a ...any) { tl.logf(f, a...) }

// WithFields returns a logger sharing the entries of tl, that appends the
// fields to each entry.
func (tl *TestLogger) WithFields(fields map[string]any) logging.Logger {
	merged := make(map[string]any, len(tl.fields)+len(fields))
	for k, v := range tl.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	c := *tl
	c.fields = merged
	return &c
}

// Levels and Fire implement logrus.Hook.
func (tl *TestLogger) Levels() []logrus.Level { return logrus.AllLevels }

func (tl *TestLogger) Fire(e *logrus.Entry) error {
	tl.log(e.Message)
	return nil
}

// Attach captures the entries of a logrus logger, typically
// logrus.StandardLogger(), until the returned function is called.
func (tl *TestLogger) Attach(l *logrus.Logger) (detach func()) {
	hooks := make(logrus.LevelHooks)
	for level, h := range l.Hooks {
		hooks[level] = append(hooks[level], h...)
	}

	l.AddHook(tl)
	return func() {
		l.ReplaceHooks(hooks)
	}
}
