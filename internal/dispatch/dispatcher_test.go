package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"sshfan/internal/config"
	"sshfan/internal/logging"
	"sshfan/internal/target"
	"sshfan/internal/transport"
)

// fakeRunner records jobs and simulates per-host sessions.
type fakeRunner struct {
	mu      sync.Mutex
	jobs    []transport.Job
	scripts []string // captured script contents per job
	failOn  map[string]error
	exitOn  map[string]int
	output  func(t target.Target) string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		failOn: make(map[string]error),
		exitOn: make(map[string]int),
		output: func(t target.Target) string { return "out from " + t.Host + "\n" },
	}
}

func (f *fakeRunner) Run(ctx context.Context, job transport.Job) transport.Result {
	var script string
	if job.Script != nil {
		data, _ := io.ReadAll(job.Script)
		script = string(data)
	}

	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.scripts = append(f.scripts, script)
	f.mu.Unlock()

	if err, ok := f.failOn[job.Target.Host]; ok {
		return transport.Result{Target: job.Target, ExitCode: 255, Err: err}
	}

	io.WriteString(job.Output, f.output(job.Target))

	res := transport.Result{Target: job.Target}
	if code, ok := f.exitOn[job.Target.Host]; ok {
		res.ExitCode = code
		res.Err = fmt.Errorf("exit status %d", code)
	}
	return res
}

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Output: io.Discard, Quiet: true})
}

func baseConfig() *config.RunConfig {
	return &config.RunConfig{
		Username:   "root",
		Operation:  config.OpInlineCommand,
		Command:    "uptime",
		HostSource: config.SourceInlineHosts,
		Hosts:      []string{"host1", "host2"},
		Shell:      config.ShellBash,
		Transport:  config.TransportOpenSSH,
		Parallel:   1,
	}
}

func TestSequentialOrderAndAnnouncements(t *testing.T) {
	cfg := baseConfig()
	runner := newFakeRunner()
	var console bytes.Buffer

	d := New(cfg, runner, quietLogger(), &console)
	results, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Target.Host != "host1" || results[1].Target.Host != "host2" {
		t.Fatalf("results out of order: %+v", results)
	}

	out := console.String()
	h1 := strings.Index(out, "Connecting to root@host1")
	h2 := strings.Index(out, "Connecting to root@host2")
	if h1 == -1 || h2 == -1 || h1 > h2 {
		t.Fatalf("announcements missing or out of order:\n%s", out)
	}
	if !strings.Contains(out, "out from host1") || !strings.Contains(out, "out from host2") {
		t.Fatalf("session output missing from console:\n%s", out)
	}

	if len(runner.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(runner.jobs))
	}
	if runner.jobs[0].Remote != `bash  -c "uptime"` {
		t.Fatalf("unexpected remote invocation: %q", runner.jobs[0].Remote)
	}
}

func TestQuietModeSuppressesConsoleAndLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := baseConfig()
	cfg.Quiet = true
	cfg.LogFile = logPath

	runner := newFakeRunner()
	var console bytes.Buffer

	d := New(cfg, runner, quietLogger(), &console)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if console.Len() != 0 {
		t.Fatalf("quiet mode must not write to console, got:\n%s", console.String())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("quiet mode must not write to the log file, got:\n%s", data)
	}
}

func TestLogFileAppendsAcrossRuns(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := baseConfig()
	cfg.Hosts = []string{"host1"}
	cfg.LogFile = logPath

	for i := 0; i < 2; i++ {
		d := New(cfg, newFakeRunner(), quietLogger(), io.Discard)
		if _, err := d.Run(context.Background()); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.Count(string(data), "out from host1"); got != 2 {
		t.Fatalf("expected appended output from both runs, got %d occurrence(s):\n%s", got, data)
	}
}

func TestHostFailureDoesNotAbortRemainingHosts(t *testing.T) {
	cfg := baseConfig()
	cfg.Hosts = []string{"bad", "good"}

	runner := newFakeRunner()
	runner.failOn["bad"] = fmt.Errorf("connection refused")

	d := New(cfg, runner, quietLogger(), io.Discard)
	results, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("dispatch must not fail on host errors: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both hosts dispatched, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("expected failure recorded for first host")
	}
	if !results[1].OK() {
		t.Fatalf("second host should have run: %+v", results[1])
	}
}

func TestScriptModePipesScriptPerHost(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "deploy.sh")
	if err := os.WriteFile(scriptPath, []byte("echo deploying\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.Operation = config.OpScriptFile
	cfg.ScriptPath = scriptPath
	cfg.ScriptArgs = "--force"
	cfg.Command = ""
	cfg.Hosts = []string{"a", "b"}

	runner := newFakeRunner()
	d := New(cfg, runner, quietLogger(), io.Discard)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(runner.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(runner.jobs))
	}
	for i, job := range runner.jobs {
		if job.Remote != "bash  -s --force" {
			t.Fatalf("unexpected remote invocation: %q", job.Remote)
		}
		if runner.scripts[i] != "echo deploying\n" {
			t.Fatalf("script not piped for job %d: %q", i, runner.scripts[i])
		}
	}
}

func TestHostsFileResolutionKeepsEveryLine(t *testing.T) {
	hostsPath := filepath.Join(t.TempDir(), "hosts.txt")
	if err := os.WriteFile(hostsPath, []byte("a\n\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.HostSource = config.SourceHostsFile
	cfg.HostsPath = hostsPath
	cfg.Hosts = nil

	runner := newFakeRunner()
	d := New(cfg, runner, quietLogger(), io.Discard)
	results, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("3 lines must yield 3 dispatches, got %d", len(results))
	}
	if results[1].Target.Host != "" {
		t.Fatalf("blank line must dispatch as empty host, got %q", results[1].Target.Host)
	}
}

func TestParallelPreservesOutputOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.Hosts = []string{"h1", "h2", "h3", "h4"}
	cfg.Parallel = 4

	runner := newFakeRunner()
	var console bytes.Buffer

	d := New(cfg, runner, quietLogger(), &console)
	results, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, want := range []string{"h1", "h2", "h3", "h4"} {
		if results[i].Target.Host != want {
			t.Fatalf("results out of order at %d: %+v", i, results[i])
		}
	}

	out := console.String()
	last := -1
	for _, host := range []string{"h1", "h2", "h3", "h4"} {
		idx := strings.Index(out, "out from "+host)
		if idx == -1 {
			t.Fatalf("missing output for %s:\n%s", host, out)
		}
		if idx < last {
			t.Fatalf("output for %s flushed out of order:\n%s", host, out)
		}
		last = idx
	}
	if !strings.Contains(out, "Completed 4/4 hosts in ") {
		t.Fatalf("progress summary missing from console:\n%s", out)
	}
}

func TestLiteralCommandKeepsBraces(t *testing.T) {
	cfg := baseConfig()
	cfg.Command = `docker ps --format "{{.Names}}"`
	cfg.Hosts = []string{"host1"}

	runner := newFakeRunner()
	d := New(cfg, runner, quietLogger(), io.Discard)
	results, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(runner.jobs) != 1 {
		t.Fatalf("brace-bearing command never reached the runner, %d job(s)", len(runner.jobs))
	}
	if want := `bash  -c "docker ps --format "{{.Names}}""`; runner.jobs[0].Remote != want {
		t.Fatalf("command not embedded literally:\n got %q\nwant %q", runner.jobs[0].Remote, want)
	}
	if !results[0].OK() {
		t.Fatalf("session should have run cleanly: %+v", results[0])
	}
}

func TestPerHostCommandTemplating(t *testing.T) {
	cfg := baseConfig()
	cfg.Command = "echo {{.Host}}"
	cfg.Template = true
	cfg.Hosts = []string{"web1", "web2"}

	runner := newFakeRunner()
	d := New(cfg, runner, quietLogger(), io.Discard)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if runner.jobs[0].Remote != `bash  -c "echo web1"` {
		t.Fatalf("template not expanded: %q", runner.jobs[0].Remote)
	}
	if runner.jobs[1].Remote != `bash  -c "echo web2"` {
		t.Fatalf("template not expanded: %q", runner.jobs[1].Remote)
	}
}
