// Package config provides argument resolution and configuration management
// for sshfan.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Shell kinds accepted by --shell.
const (
	ShellPosix = "sh"
	ShellBash  = "bash"
)

// Transport kinds accepted by --transport.
const (
	TransportOpenSSH = "openssh"
	TransportNative  = "native"
)

// DefaultTransportFlags is the fixed safe-defaults string passed to the
// external client when --sshflags is not given.
const DefaultTransportFlags = "-o StrictHostKeyChecking=accept-new -o ConnectTimeout=30"

// MaxParallel bounds --parallel to keep a single run from exhausting local
// file descriptors.
const MaxParallel = 64

// OperationKind selects the unit of remote work.
type OperationKind int

const (
	// OpInlineCommand runs a single shell command string on each host.
	OpInlineCommand OperationKind = iota

	// OpScriptFile pipes a local script file to the remote shell's stdin.
	OpScriptFile
)

// HostSourceKind selects where the host list comes from.
type HostSourceKind int

const (
	// SourceInlineHosts takes hosts from trailing positional arguments.
	SourceInlineHosts HostSourceKind = iota

	// SourceHostsFile reads one host per line from a file.
	SourceHostsFile
)

// RunConfig is the validated, immutable result of argument resolution.
// Exactly one operation variant and exactly one host source variant are
// populated; the resolver rejects anything else before construction.
type RunConfig struct {
	Username string

	Operation  OperationKind
	Command    string // set when Operation == OpInlineCommand
	ScriptPath string // set when Operation == OpScriptFile
	ScriptArgs string // trailing positional args for the remote shell, script mode only

	HostSource HostSourceKind
	Hosts      []string // set when HostSource == SourceInlineHosts
	HostsPath  string   // set when HostSource == SourceHostsFile

	LogFile           string // empty means discard sink
	UseGlobalPassword bool
	Shell             string // sh or bash
	ShellFlags        string
	TransportFlags    string
	Transport         string // openssh or native
	Parallel          int    // 1 means the sequential legacy path
	ReportFile        string // empty disables the per-host outcome report
	SafeInterp        bool
	Template          bool // opt-in per-host command templating
	Quiet             bool
	Verbose           bool
}

// DumpTo writes a human-readable dump of every resolved field. Emitted to
// stderr when --verbose is set, before any host is contacted.
func (c *RunConfig) DumpTo(w io.Writer) {
	fmt.Fprintln(w, "Resolved configuration:")
	fmt.Fprintf(w, "  username:        %s\n", c.Username)
	switch c.Operation {
	case OpScriptFile:
		fmt.Fprintf(w, "  operation:       script %s\n", c.ScriptPath)
		fmt.Fprintf(w, "  script args:     %s\n", c.ScriptArgs)
	default:
		fmt.Fprintf(w, "  operation:       command %q\n", c.Command)
	}
	switch c.HostSource {
	case SourceHostsFile:
		fmt.Fprintf(w, "  hosts:           file %s\n", c.HostsPath)
	default:
		fmt.Fprintf(w, "  hosts:           %s\n", strings.Join(c.Hosts, " "))
	}
	logfile := c.LogFile
	if logfile == "" {
		logfile = "(discard)"
	}
	fmt.Fprintf(w, "  logfile:         %s\n", logfile)
	fmt.Fprintf(w, "  global password: %t\n", c.UseGlobalPassword)
	fmt.Fprintf(w, "  shell:           %s\n", c.Shell)
	fmt.Fprintf(w, "  shell flags:     %s\n", c.ShellFlags)
	fmt.Fprintf(w, "  ssh flags:       %s\n", c.TransportFlags)
	fmt.Fprintf(w, "  transport:       %s\n", c.Transport)
	fmt.Fprintf(w, "  parallel:        %d\n", c.Parallel)
	if c.ReportFile != "" {
		fmt.Fprintf(w, "  report:          %s\n", c.ReportFile)
	}
	fmt.Fprintf(w, "  safe interp:     %t\n", c.SafeInterp)
	fmt.Fprintf(w, "  templating:      %t\n", c.Template)
	fmt.Fprintf(w, "  quiet:           %t\n", c.Quiet)
	fmt.Fprintf(w, "  verbose:         %t\n", c.Verbose)
}

// Defaults holds the non-core settings that may be seeded from config files
// and environment variables before CLI tokens are applied. CLI tokens
// always win.
type Defaults struct {
	LogFile    string `mapstructure:"logfile"`
	Shell      string `mapstructure:"shell"`
	ShellFlags string `mapstructure:"shellflags"`
	SSHFlags   string `mapstructure:"sshflags"`
	Transport  string `mapstructure:"transport"`
	Parallel   int    `mapstructure:"parallel"`
	LogLevel   string `mapstructure:"log-level"`
	LogFormat  string `mapstructure:"log-format"`
}

// Manager defines the interface for defaults management
type Manager interface {
	// Load reads defaults from all sources (files, env vars)
	Load() (*Defaults, error)

	// Source reports where the loaded defaults came from
	Source() string
}

// ViperManager implements the Manager interface using Viper
type ViperManager struct {
	v *viper.Viper
}

// NewManager creates a new defaults manager
func NewManager() Manager {
	return &ViperManager{
		v: viper.New(),
	}
}

// Load reads defaults from config files and SSHFAN_* environment variables
// with proper precedence.
func (m *ViperManager) Load() (*Defaults, error) {
	m.v.SetDefault("logfile", "")
	m.v.SetDefault("shell", ShellBash)
	m.v.SetDefault("shellflags", "")
	m.v.SetDefault("sshflags", DefaultTransportFlags)
	m.v.SetDefault("transport", TransportOpenSSH)
	m.v.SetDefault("parallel", 1)
	m.v.SetDefault("log-level", "info")
	m.v.SetDefault("log-format", "text")

	m.v.SetConfigName("config")
	m.v.SetConfigType("yaml")

	// Current directory (highest precedence), then user, then system.
	m.v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		m.v.AddConfigPath(filepath.Join(homeDir, ".config", "sshfan"))
	}
	m.v.AddConfigPath("/etc/sshfan/")

	m.v.SetEnvPrefix("SSHFAN")
	m.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	m.v.AutomaticEnv()

	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var defaults Defaults
	if err := m.v.Unmarshal(&defaults); err != nil {
		return nil, fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	return &defaults, nil
}

// Source returns the config file the defaults were read from, or
// "built-in defaults" when no file was found.
func (m *ViperManager) Source() string {
	if used := m.v.ConfigFileUsed(); used != "" {
		return used
	}
	return "built-in defaults"
}
