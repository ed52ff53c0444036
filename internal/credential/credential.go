// Package credential handles the single shared secret for global password
// mode. The secret is captured once per run, held in memory only, and
// reused identically for every host.
package credential

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Secret holds the captured password. String and GoString are overridden
// so the value cannot leak through logs, verbose dumps, or %v formatting;
// only Reveal returns the real bytes.
type Secret string

// String implements fmt.Stringer with a redacted value.
func (s Secret) String() string {
	return "[redacted]"
}

// GoString implements fmt.GoStringer with a redacted value.
func (s Secret) GoString() string {
	return `credential.Secret("[redacted]")`
}

// Reveal returns the underlying secret.
func (s Secret) Reveal() string {
	return string(s)
}

// Empty reports whether no secret was captured.
func (s Secret) Empty() bool {
	return s == ""
}

// Prompt reads a password from stdin with terminal echo disabled. The
// terminal state is captured up front and restored on every exit path,
// including an interrupt arriving mid-read. When stdin is not a terminal
// (pipes, CI), it falls back to reading one line with no echo handling.
func Prompt(prompt string) (Secret, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return Secret(strings.TrimRight(line, "\r\n")), nil
	}

	state, err := term.GetState(fd)
	if err != nil {
		return "", fmt.Errorf("failed to capture terminal state: %w", err)
	}
	defer term.Restore(fd, state)

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return Secret(raw), nil
}
