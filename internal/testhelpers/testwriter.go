package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer sends each log record to tb.Log so the output of passing tests stays hidden unless -v is set.
type Writer struct {
	tb   testing.TB
	done atomic.Bool
}

// NewWriter binds a Writer to tb. It works for tests and benchmarks alike. Writing after tb has finished
// panics, which surfaces goroutines that outlive their test.
func NewWriter(tb testing.TB) io.Writer {
	w := &Writer{tb: tb, done: atomic.Bool{}}
	tb.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log write after " + w.tb.Name() + " finished")
	}
	for line := range strings.Lines(string(p)) {
		if line = strings.TrimSuffix(line, "\n"); line != "" {
			w.tb.Log(line)
		}
	}
	return len(p), nil
}
