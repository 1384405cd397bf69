package harness

import (
	"fmt"
	"testing"
	"time"

	"github.com/getmockd/oidctest/pkg/logging"
)

const (
	timeout = 5 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeTB records failures and cleanups instead of acting on them.
type fakeTB struct {
	testing.TB

	failed   bool
	message  string
	cleanups []func()
}

func (f *fakeTB) Helper() {}

func (f *fakeTB) Cleanup(fn func()) {
	f.cleanups = append(f.cleanups, fn)
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.failed = true
	f.message = fmt.Sprintf(format, args...)
}

func (f *fakeTB) runCleanups() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
	f.cleanups = nil
}

func countMessages(r *logging.Recorder, msg string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}
