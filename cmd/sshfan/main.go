package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sshfan/internal/config"
	"sshfan/internal/credential"
	"sshfan/internal/dispatch"
	"sshfan/internal/logging"
	"sshfan/internal/report"
	"sshfan/internal/transport"

	"github.com/spf13/cobra"
)

var (
	// Build-time variables (set via -ldflags)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s. Exiting.\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sshfan [OPTIONS] USERNAME COMMAND HOSTS...",
	Short: "Run the same command or script on many hosts over SSH",
	Long: `sshfan opens one remote shell session per host and runs the same
operation on each, sequentially by default, collecting and optionally
logging the combined output.

The operation is either an inline command or a local script file piped
to the remote shell. Hosts come from trailing arguments or from a file
with one host per line. A single global password can be shared across
all sessions.

Options:
  -g, --globalpw          prompt once for a password shared by every host
  -s, --script FILE       run a local script file instead of a command
  -r, --hostsfile FILE    read hosts from FILE, one per line
  -a, --args ARGS         trailing arguments for the remote shell (script mode)
  -q, --quiet             no announcements, discard all session output
  -v, --verbose           dump the resolved configuration before dispatch
      --shell {sh|bash}   remote shell to invoke (default bash)
      --shellflags FLAGS  extra flags for the remote shell
      --sshflags FLAGS    flags for the ssh client invocation
      --logfile FILE      append session output to FILE
      --report FILE       write per-host outcomes (YAML, or NDJSON by extension)
      --parallel N        run up to N hosts at once (default 1, sequential)
      --transport KIND    openssh (external client, default) or native
      --safe-interp       shell-quote the command instead of legacy interpolation
      --template          expand {{.Host}}/{{.User}}/{{.Addr}} in the command per host

Examples:
  # Run a command on two hosts
  sshfan root 'uptime' host1 host2

  # Pipe a script, with arguments, to hosts from a file
  sshfan -s deploy.sh -a '--force' -r hosts.txt deployer

  # Shared password, output appended to a log file
  sshfan -g --logfile run.log admin 'systemctl restart nginx' web1 web2`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args)
	},
}

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sshfan %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func run(cmd *cobra.Command, args []string) error {
	manager := config.NewManager()
	defaults, err := manager.Load()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(args, defaults)
	if err == config.ErrHelp {
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logging.LogLevel(defaults.LogLevel),
		Format: logging.LogFormat(defaults.LogFormat),
		Quiet:  !cfg.Verbose,
	})
	logger.LogConfigLoad(manager.Source())

	if cfg.Verbose {
		cfg.DumpTo(os.Stderr)
	}

	// The credential is captured exactly once, after validation and before
	// any host is contacted, and reused identically for every session.
	var secret credential.Secret
	if cfg.UseGlobalPassword {
		secret, err = credential.Prompt(fmt.Sprintf("Password for %s: ", cfg.Username))
		if err != nil {
			return err
		}
	}

	var runner transport.Runner
	switch cfg.Transport {
	case config.TransportNative:
		runner = transport.NewNativeRunner(secret, cfg.UseGlobalPassword, logger)
	default:
		runner = transport.NewExecRunner(cfg.TransportFlags, secret, cfg.UseGlobalPassword)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := dispatch.New(cfg, runner, logger, os.Stdout)
	results, err := d.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		if err := report.Write(cfg.ReportFile, results); err != nil {
			logger.Error("failed to write report", "error", err)
		}
	}

	// Per-host failures surface in the output and the report, never in
	// the exit code.
	return nil
}
