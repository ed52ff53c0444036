// Package progress provides a completion counter for parallel dispatch runs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker counts completed hosts during a parallel run and prints a final
// summary line. Sequential runs don't use it; their per-host announcements
// already show where the run is.
type Tracker struct {
	total     int
	completed int
	failed    int
	startTime time.Time
	mu        sync.Mutex
	writer    io.Writer
	enabled   bool
}

// NewTracker creates a new progress tracker
func NewTracker(total int, writer io.Writer, enabled bool) *Tracker {
	return &Tracker{
		total:     total,
		startTime: time.Now(),
		writer:    writer,
		enabled:   enabled,
	}
}

// Update increments the completion counters
func (p *Tracker) Update(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if success {
		p.completed++
	} else {
		p.failed++
	}
}

// Finish prints the final summary line
func (p *Tracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}

	elapsed := time.Since(p.startTime).Round(time.Second)
	if p.failed == 0 {
		fmt.Fprintf(p.writer, "Completed %d/%d hosts in %v\n", p.completed, p.total, elapsed)
	} else {
		fmt.Fprintf(p.writer, "Completed %d/%d hosts (%d failed) in %v\n",
			p.completed+p.failed, p.total, p.failed, elapsed)
	}
}

// Stats returns current counters
func (p *Tracker) Stats() (completed, failed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.failed, p.total
}
