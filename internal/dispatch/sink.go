package dispatch

import (
	"io"
	"os"
)

type nopSink struct{}

func (nopSink) Write(p []byte) (int, error) { return len(p), nil }
func (nopSink) Close() error                { return nil }

// openLogSink opens the append-only log file, or a discard sink when no
// log file is configured. The file is never truncated: every run appends.
func openLogSink(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopSink{}, nil
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}
