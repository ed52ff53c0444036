package transport

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"sshfan/internal/credential"
)

// ExecRunner shells out to the external OpenSSH client for every job,
// matching the legacy tool's behavior byte for byte: transport flags and
// the user@host target are interpolated literally into the invocation.
// In global password mode the session is mediated by sshpass, with the
// secret travelling only in the child's SSHPASS environment variable.
type ExecRunner struct {
	SSHFlags  string // split on whitespace into individual argv entries
	UseHelper bool
	Password  credential.Secret
}

// NewExecRunner creates a runner for the external OpenSSH client
func NewExecRunner(sshFlags string, password credential.Secret, useHelper bool) *ExecRunner {
	return &ExecRunner{
		SSHFlags:  sshFlags,
		UseHelper: useHelper,
		Password:  password,
	}
}

// argv builds the full local invocation for a job.
func (r *ExecRunner) argv(job Job) []string {
	args := make([]string, 0, 8)
	if r.UseHelper {
		args = append(args, "sshpass", "-e")
	}
	args = append(args, "ssh")
	args = append(args, strings.Fields(r.SSHFlags)...)
	args = append(args, job.Target.Addr(), job.Remote)
	return args
}

// Run executes the job and blocks until the remote session completes.
func (r *ExecRunner) Run(ctx context.Context, job Job) Result {
	result := Result{Target: job.Target}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	argv := r.argv(job)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = job.Script
	cmd.Stdout = job.Output
	cmd.Stderr = job.Output

	if r.UseHelper {
		cmd.Env = append(os.Environ(), "SSHPASS="+r.Password.Reveal())
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// The remote command (or ssh itself, exit 255) failed; that is
			// a per-host outcome, not a transport error.
			result.ExitCode = exitErr.ExitCode()
			result.Err = err
			return result
		}
		result.ExitCode = 255
		result.Err = err
		return result
	}

	return result
}
