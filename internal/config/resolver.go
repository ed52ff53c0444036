package config

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"sshfan/internal/errors"
)

// ErrHelp is returned by Resolve when the very first token is exactly
// --help. The caller prints usage and exits 0 before any other parsing.
var ErrHelp = fmt.Errorf("help requested")

// lookPath resolves external binaries on PATH. Tests stub this out.
var lookPath = exec.LookPath

// valuedFlags maps recognized valued flag tokens to their assignment slot.
var valuedFlags = map[string]string{
	"-s":           "script",
	"--script":     "script",
	"-a":           "args",
	"--args":       "args",
	"-r":           "hostsfile",
	"--hostsfile":  "hostsfile",
	"--logfile":    "logfile",
	"--shell":      "shell",
	"--shellflags": "shellflags",
	"--sshflags":   "sshflags",
	"--report":     "report",
	"--parallel":   "parallel",
	"--transport":  "transport",
}

// scanState drives positional assignment: the first bare token is the
// username, the second is the remote command unless a script file is
// already set, and every later bare token is an inline host.
type scanState int

const (
	expectUsername scanState = iota
	expectOperationOrHost
	collectingHosts
)

// rawArgs collects everything the single left-to-right scan produced,
// before validation decides whether it forms a legal RunConfig.
type rawArgs struct {
	username   string
	command    string
	hosts      []string
	values     map[string]string
	globalpw   bool
	quiet      bool
	verbose    bool
	safeInterp bool
	template   bool
}

// Resolve parses the full argument vector into a validated RunConfig.
// The scan is a single pass with no backtracking: a pending-flag slot
// consumes the following token as that flag's value, recognized boolean
// flags toggle immediately, any other dash token is an unknown option,
// and bare tokens are assigned positionally.
func Resolve(args []string, defaults *Defaults) (*RunConfig, error) {
	if len(args) > 0 && args[0] == "--help" {
		return nil, ErrHelp
	}
	if len(args) < 3 {
		return nil, errors.NewConfigError(errors.TooFewArguments,
			"expected at least a username, an operation and hosts, got %d argument(s)", len(args))
	}

	raw := rawArgs{values: make(map[string]string)}
	state := expectUsername
	pending := "" // slot name awaiting a value
	pendingTok := ""

	for _, tok := range args {
		if pending != "" {
			raw.values[pending] = tok
			pending = ""
			continue
		}

		if slot, ok := valuedFlags[tok]; ok {
			pending = slot
			pendingTok = tok
			continue
		}

		switch tok {
		case "-g", "--globalpw":
			raw.globalpw = true
			continue
		case "-q", "--quiet":
			raw.quiet = true
			continue
		case "-v", "--verbose":
			raw.verbose = true
			continue
		case "--safe-interp":
			raw.safeInterp = true
			continue
		case "--template":
			raw.template = true
			continue
		}

		if strings.HasPrefix(tok, "-") {
			return nil, errors.NewConfigError(errors.UnknownOption, "unknown option '%s'", tok)
		}

		switch state {
		case expectUsername:
			raw.username = tok
			state = expectOperationOrHost
		case expectOperationOrHost:
			if raw.values["script"] == "" {
				raw.command = tok
			} else {
				raw.hosts = append(raw.hosts, tok)
			}
			state = collectingHosts
		case collectingHosts:
			raw.hosts = append(raw.hosts, tok)
		}
	}

	if pending != "" {
		return nil, errors.NewConfigError(errors.MissingFlagValue, "flag '%s' requires a value", pendingTok)
	}

	return validate(raw, defaults)
}

// validate runs the post-scan checks in order; the first failing check
// wins and each yields a distinct error kind.
func validate(raw rawArgs, defaults *Defaults) (*RunConfig, error) {
	if defaults == nil {
		defaults = &Defaults{
			Shell:     ShellBash,
			SSHFlags:  DefaultTransportFlags,
			Transport: TransportOpenSSH,
			Parallel:  1,
		}
	}

	if raw.username == "" {
		return nil, errors.NewConfigError(errors.MissingUsername, "no username given")
	}

	script := raw.values["script"]
	if script == "" && raw.command == "" {
		return nil, errors.NewConfigError(errors.MissingOperation,
			"no operation given: pass a command or a script file (-s)")
	}
	if script != "" && raw.command != "" {
		return nil, errors.NewConfigError(errors.ConflictingOperation,
			"both a command and a script file were given; pick one")
	}
	if raw.values["args"] != "" && script == "" {
		return nil, errors.NewConfigError(errors.ArgsWithoutScript,
			"-a/--args is only valid together with -s/--script")
	}

	hostsFile := raw.values["hostsfile"]
	if hostsFile == "" && len(raw.hosts) == 0 {
		return nil, errors.NewConfigError(errors.MissingHosts,
			"no hosts given: list them inline or pass -r/--hostsfile")
	}
	if hostsFile != "" && len(raw.hosts) > 0 {
		return nil, errors.NewConfigError(errors.ConflictingHosts,
			"both inline hosts and a hosts file were given; pick one")
	}
	if hostsFile != "" {
		if err := checkReadable(hostsFile); err != nil {
			return nil, errors.NewConfigError(errors.UnreadableHostsFile,
				"hosts file '%s' is not readable: %v", hostsFile, err)
		}
	}
	if script != "" {
		if err := checkReadable(script); err != nil {
			return nil, errors.NewConfigError(errors.UnreadableScriptFile,
				"script file '%s' is not readable: %v", script, err)
		}
	}

	// An explicit CLI value is authoritative even when empty; only an
	// absent flag falls back to the defaults layer.
	shell, ok := raw.values["shell"]
	if !ok {
		shell = defaults.Shell
		if shell == "" {
			shell = ShellBash
		}
	}
	if shell != ShellPosix && shell != ShellBash {
		return nil, errors.NewConfigError(errors.UnsupportedShell,
			"unsupported shell '%s': must be '%s' or '%s'", shell, ShellPosix, ShellBash)
	}

	logFile, ok := raw.values["logfile"]
	if !ok {
		logFile = defaults.LogFile
	}
	if logFile != "" {
		if info, err := os.Stat(logFile); err == nil && info.IsDir() {
			return nil, errors.NewConfigError(errors.InvalidLogFile,
				"log file '%s' is a directory", logFile)
		}
	}

	transport, ok := raw.values["transport"]
	if !ok {
		transport = defaults.Transport
		if transport == "" {
			transport = TransportOpenSSH
		}
	}

	if transport == TransportOpenSSH {
		if _, err := lookPath("ssh"); err != nil {
			return nil, errors.NewConfigError(errors.MissingDependency,
				"required transport binary 'ssh' not found on PATH")
		}
		if raw.globalpw {
			if _, err := lookPath("sshpass"); err != nil {
				return nil, errors.NewConfigError(errors.MissingDependency,
					"global password mode requires 'sshpass' on PATH")
			}
		}
	}

	parallel := defaults.Parallel
	if s, ok := raw.values["parallel"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.NewConfigError(errors.InvalidParallelism,
				"invalid parallelism '%s': must be a positive integer", s)
		}
		parallel = n
	}
	if parallel < 1 || parallel > MaxParallel {
		return nil, errors.NewConfigError(errors.InvalidParallelism,
			"parallelism must be between 1 and %d, got %d", MaxParallel, parallel)
	}

	if transport != TransportOpenSSH && transport != TransportNative {
		return nil, errors.NewConfigError(errors.UnsupportedTransport,
			"unsupported transport '%s': must be '%s' or '%s'", transport, TransportOpenSSH, TransportNative)
	}

	report := raw.values["report"]
	if report != "" {
		if info, err := os.Stat(report); err == nil && info.IsDir() {
			return nil, errors.NewConfigError(errors.InvalidReportFile,
				"report file '%s' is a directory", report)
		}
	}

	sshFlags, ok := raw.values["sshflags"]
	if !ok {
		sshFlags = defaults.SSHFlags
	}
	if sshFlags == "" && !ok {
		sshFlags = DefaultTransportFlags
	}

	shellFlags, ok := raw.values["shellflags"]
	if !ok {
		shellFlags = defaults.ShellFlags
	}

	cfg := &RunConfig{
		Username:          raw.username,
		ScriptArgs:        raw.values["args"],
		LogFile:           logFile,
		UseGlobalPassword: raw.globalpw,
		Shell:             shell,
		ShellFlags:        shellFlags,
		TransportFlags:    sshFlags,
		Transport:         transport,
		Parallel:          parallel,
		ReportFile:        report,
		SafeInterp:        raw.safeInterp,
		Template:          raw.template,
		Quiet:             raw.quiet,
		Verbose:           raw.verbose,
	}

	if script != "" {
		cfg.Operation = OpScriptFile
		cfg.ScriptPath = script
	} else {
		cfg.Operation = OpInlineCommand
		cfg.Command = raw.command
	}

	if hostsFile != "" {
		cfg.HostSource = SourceHostsFile
		cfg.HostsPath = hostsFile
	} else {
		cfg.HostSource = SourceInlineHosts
		cfg.Hosts = raw.hosts
	}

	return cfg, nil
}

// checkReadable verifies the file can actually be opened for reading, not
// merely that it exists.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
