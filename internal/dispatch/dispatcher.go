// Package dispatch drives per-host execution: it resolves the final host
// list, selects the execution variant for each host, and runs them either
// strictly sequentially (the default) or through a bounded worker pool.
package dispatch

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"sshfan/internal/config"
	"sshfan/internal/errors"
	"sshfan/internal/logging"
	"sshfan/internal/progress"
	"sshfan/internal/target"
	"sshfan/internal/template"
	"sshfan/internal/transport"
)

// Dispatcher runs one remote session per host. Host-level failures are
// independent: a failed host is recorded and the loop moves on, and the
// process exit code is unaffected.
type Dispatcher struct {
	cfg     *config.RunConfig
	runner  transport.Runner
	logger  *logging.Logger
	console io.Writer
}

// New creates a dispatcher
func New(cfg *config.RunConfig, runner transport.Runner, logger *logging.Logger, console io.Writer) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		console: console,
	}
}

// Run resolves the host list and executes the configured operation on
// every host, returning per-host results in original host order.
func (d *Dispatcher) Run(ctx context.Context) ([]transport.Result, error) {
	targets, err := d.resolveTargets()
	if err != nil {
		return nil, err
	}

	sink, err := openLogSink(d.cfg.LogFile)
	if err != nil {
		return nil, errors.NewConfigError(errors.InvalidLogFile,
			"cannot open log file '%s': %v", d.cfg.LogFile, err)
	}
	defer sink.Close()

	d.logger.LogDispatchStart(len(targets), d.cfg.Parallel, d.cfg.Transport)

	if d.cfg.Parallel > 1 {
		return d.runParallel(ctx, targets, sink), nil
	}
	return d.runSequential(ctx, targets, sink), nil
}

// resolveTargets builds the ordered host list from the configured source.
func (d *Dispatcher) resolveTargets() ([]target.Target, error) {
	if d.cfg.HostSource == config.SourceHostsFile {
		targets, err := target.FromHostsFile(d.cfg.Username, d.cfg.HostsPath)
		if err != nil {
			return nil, errors.NewConfigError(errors.UnreadableHostsFile,
				"hosts file '%s' is not readable: %v", d.cfg.HostsPath, err)
		}
		return targets, nil
	}
	return target.FromHosts(d.cfg.Username, d.cfg.Hosts), nil
}

// runSequential is the legacy path: one host at a time, blocking on each
// session, output interleaved into the console and the log sink as it
// arrives.
func (d *Dispatcher) runSequential(ctx context.Context, targets []target.Target, sink io.Writer) []transport.Result {
	results := make([]transport.Result, 0, len(targets))

	for _, t := range targets {
		output := io.Writer(io.Discard)
		if !d.cfg.Quiet {
			d.announce(t)
			output = io.MultiWriter(d.console, sink)
		}

		res := d.runOne(ctx, t, output)
		d.logResult(res)
		results = append(results, res)
	}

	d.logSummary(results)
	return results
}

// runParallel executes hosts through a bounded worker pool. Per-host
// output is buffered and flushed in original host order, so the console
// and log file read the same as a sequential run.
func (d *Dispatcher) runParallel(ctx context.Context, targets []target.Target, sink io.Writer) []transport.Result {
	workers := d.cfg.Parallel
	if workers > len(targets) {
		workers = len(targets)
	}

	results := make([]transport.Result, len(targets))
	outputs := make([]*bytes.Buffer, len(targets))
	for i := range outputs {
		outputs[i] = &bytes.Buffer{}
	}

	tracker := progress.NewTracker(len(targets), d.console, !d.cfg.Quiet)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				output := io.Writer(io.Discard)
				if !d.cfg.Quiet {
					output = outputs[i]
				}
				res := d.runOne(ctx, targets[i], output)
				results[i] = res
				tracker.Update(res.OK())
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Flush buffered output in host order.
	for i, t := range targets {
		if !d.cfg.Quiet {
			d.announce(t)
			d.console.Write(outputs[i].Bytes())
			sink.Write(outputs[i].Bytes())
		}
		d.logResult(results[i])
	}

	tracker.Finish()
	d.logSummary(results)
	return results
}

// runOne executes a single host session with the configured variant.
func (d *Dispatcher) runOne(ctx context.Context, t target.Target, output io.Writer) transport.Result {
	job := transport.Job{
		Target: t,
		Output: output,
	}

	switch d.cfg.Operation {
	case config.OpScriptFile:
		job.Remote = transport.RemoteScript(d.cfg.Shell, d.cfg.ShellFlags, d.cfg.ScriptArgs)

		script, err := os.Open(d.cfg.ScriptPath)
		if err != nil {
			return transport.Result{Target: t, ExitCode: 255, Err: err}
		}
		defer script.Close()
		job.Script = script

	default:
		// The command is embedded literally unless templating was asked
		// for; a brace-bearing command like `docker ps --format
		// "{{.Names}}"` must reach the remote shell untouched.
		command := d.cfg.Command
		if d.cfg.Template {
			expanded, err := template.Expand(command, t)
			if err != nil {
				return transport.Result{Target: t, ExitCode: 255, Err: err}
			}
			command = expanded
		}
		job.Remote = transport.RemoteCommand(d.cfg.Shell, d.cfg.ShellFlags, command, d.cfg.SafeInterp)
	}

	return d.runner.Run(ctx, job)
}

// announce prints the connection target on the console.
func (d *Dispatcher) announce(t target.Target) {
	io.WriteString(d.console, "Connecting to "+t.Addr()+"\n")
}

func (d *Dispatcher) logResult(res transport.Result) {
	if res.Err != nil {
		d.logger.LogHostError(res.Target, res.Err, errors.ClassifyTransportError(res.Err).String())
		return
	}
	d.logger.LogHostResult(res.Target, res.ExitCode, res.Duration)
}

func (d *Dispatcher) logSummary(results []transport.Result) {
	var success, failure int
	var elapsed time.Duration
	for _, r := range results {
		if r.OK() {
			success++
		} else {
			failure++
		}
		elapsed += r.Duration
	}
	d.logger.LogDispatchComplete(len(results), success, failure, elapsed)
}
