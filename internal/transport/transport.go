// Package transport executes one remote shell session per host. The
// default runner shells out to the external OpenSSH client; an in-process
// runner built on golang.org/x/crypto/ssh is available as an opt-in.
package transport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"sshfan/internal/target"
)

// Job is a single remote session: one target, one remote-side invocation
// string, and the sinks its merged output goes to.
type Job struct {
	Target target.Target
	Remote string    // remote-side invocation string, interpolated literally
	Script io.Reader // non-nil in script mode; piped to the remote shell's stdin
	Output io.Writer // merged stdout+stderr, in arrival order
}

// Result is the outcome of one remote session.
type Result struct {
	Target   target.Target
	ExitCode int
	Duration time.Duration
	Err      error
}

// OK reports whether the session connected and the remote command exited 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes jobs. Implementations must be safe for concurrent use:
// the dispatcher may run several jobs at once in parallel mode.
type Runner interface {
	Run(ctx context.Context, job Job) Result
}

// RemoteCommand builds the remote-side invocation for an inline command:
// `<shell> <shellFlags> -c "<command>"`. The command is embedded literally,
// double space included when shellFlags is empty; callers opting into safe
// interpolation get single-quote escaping instead of the bare double quotes.
func RemoteCommand(shell, shellFlags, command string, safeInterp bool) string {
	if safeInterp {
		return fmt.Sprintf("%s %s -c %s", shell, shellFlags, quoteSingle(command))
	}
	return fmt.Sprintf("%s %s -c \"%s\"", shell, shellFlags, command)
}

// RemoteScript builds the remote-side invocation for script mode:
// `<shell> <shellFlags> -s` with the script arriving on stdin and any
// script args appended as trailing positional arguments.
func RemoteScript(shell, shellFlags, scriptArgs string) string {
	s := fmt.Sprintf("%s %s -s", shell, shellFlags)
	if scriptArgs != "" {
		s += " " + scriptArgs
	}
	return s
}

// quoteSingle wraps s in single quotes, escaping embedded single quotes the
// POSIX way ('\'' sequences).
func quoteSingle(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
