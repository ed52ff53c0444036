// Package report writes the opt-in per-host outcome report. The default
// run remains best-effort with no aggregate failure signal; the report
// only records what happened, it never changes the exit code.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sshfan/internal/errors"
	"sshfan/internal/transport"
)

// Entry is one host's recorded outcome.
type Entry struct {
	Host       string `yaml:"host" json:"host"`
	User       string `yaml:"user" json:"user"`
	ExitCode   int    `yaml:"exit_code" json:"exit_code"`
	DurationMs int64  `yaml:"duration_ms" json:"duration_ms"`
	Error      string `yaml:"error,omitempty" json:"error,omitempty"`
	ErrorType  string `yaml:"error_type,omitempty" json:"error_type,omitempty"`
}

// FromResults converts dispatch results into report entries, preserving
// host order.
func FromResults(results []transport.Result) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		e := Entry{
			Host:       r.Target.Host,
			User:       r.Target.User,
			ExitCode:   r.ExitCode,
			DurationMs: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
			e.ErrorType = errors.ClassifyTransportError(r.Err).String()
		}
		entries = append(entries, e)
	}
	return entries
}

// Write writes the report to path. The extension picks the format:
// .json and .ndjson emit newline-delimited JSON, anything else YAML.
func Write(path string, results []transport.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", path, err)
	}
	defer file.Close()

	return WriteTo(file, filepath.Ext(path), results)
}

// WriteTo writes the report for the given extension to any writer.
func WriteTo(w io.Writer, ext string, results []transport.Result) error {
	entries := FromResults(results)

	switch strings.ToLower(ext) {
	case ".json", ".ndjson":
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("failed to encode report entry: %w", err)
			}
		}
		return nil
	default:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}
}
