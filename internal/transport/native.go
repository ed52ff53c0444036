package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"sshfan/internal/credential"
	"sshfan/internal/logging"
)

// NativeRunner runs sessions with an in-process SSH client instead of the
// external binary. It authenticates via the local SSH agent and, in global
// password mode, with the captured secret directly, so no helper binary is
// needed.
type NativeRunner struct {
	Password    credential.Secret
	UsePassword bool
	Logger      *logging.Logger
}

// NewNativeRunner creates an in-process SSH runner
func NewNativeRunner(password credential.Secret, usePassword bool, logger *logging.Logger) *NativeRunner {
	return &NativeRunner{
		Password:    password,
		UsePassword: usePassword,
		Logger:      logger,
	}
}

// Run executes the job and blocks until the remote session completes.
func (r *NativeRunner) Run(ctx context.Context, job Job) Result {
	result := Result{Target: job.Target}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	config := &ssh.ClientConfig{
		User:            job.Target.User,
		Auth:            r.authMethods(),
		HostKeyCallback: r.hostKeyCallback(),
		Timeout:         30 * time.Second,
	}

	address := job.Target.Host
	if !strings.Contains(address, ":") {
		address = net.JoinHostPort(address, "22")
	}

	dialer := &net.Dialer{Timeout: config.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		result.ExitCode = 255
		result.Err = fmt.Errorf("failed to connect to %s: %w", address, err)
		return result
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, address, config)
	if err != nil {
		netConn.Close()
		result.ExitCode = 255
		result.Err = fmt.Errorf("SSH handshake failed for %s: %w", address, err)
		return result
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		result.ExitCode = 255
		result.Err = fmt.Errorf("failed to create session: %w", err)
		return result
	}
	defer session.Close()

	session.Stdin = job.Script
	session.Stdout = job.Output
	session.Stderr = job.Output

	done := make(chan error, 1)
	go func() {
		done <- session.Run(job.Remote)
	}()

	select {
	case err := <-done:
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				result.ExitCode = exitErr.ExitStatus()
				result.Err = err
				return result
			}
			result.ExitCode = 255
			result.Err = fmt.Errorf("SSH execution error: %w", err)
			return result
		}
		return result

	case <-ctx.Done():
		session.Signal(ssh.SIGTERM)
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			session.Signal(ssh.SIGKILL)
		}
		result.ExitCode = 124
		result.Err = fmt.Errorf("session canceled: %w", ctx.Err())
		return result
	}
}

// authMethods returns authentication methods in order of preference:
// SSH agent first, then the global password when one was captured.
func (r *NativeRunner) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if agentConn, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK")); err == nil {
		methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
	}

	if r.UsePassword && !r.Password.Empty() {
		methods = append(methods, ssh.Password(r.Password.Reveal()))
	}

	return methods
}

// hostKeyCallback tries the user's known_hosts, then the system file, and
// finally falls back to accepting unknown keys with a logged warning. The
// fallback keeps parity with the external client's accept-new default.
func (r *NativeRunner) hostKeyCallback() ssh.HostKeyCallback {
	if homeDir, err := os.UserHomeDir(); err == nil {
		knownHostsFile := homeDir + "/.ssh/known_hosts"
		if _, err := os.Stat(knownHostsFile); err == nil {
			if cb, err := knownhosts.New(knownHostsFile); err == nil {
				return cb
			}
		}
	}

	if cb, err := knownhosts.New("/etc/ssh/ssh_known_hosts"); err == nil {
		return cb
	}

	return ssh.HostKeyCallback(func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if r.Logger != nil {
			r.Logger.LogConnectionWarning(hostname, "host key verification disabled")
		}
		return nil
	})
}
