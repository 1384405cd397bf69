package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/oidctest/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
)

type rootFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the oidctest command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "oidctest",
		Short: "oidctest runs an OIDC provider loaded with test fixtures",
		Long: `oidctest starts an in-process OIDC provider on a loopback port and registers
the keys and clients described by a fixture directory's descriptor file
(<dir>/<name>.config.yaml, .yml or .json).`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text, json (default: text)")

	cmd.AddCommand(newServeCommand(flags))
	cmd.AddCommand(newValidateCommand(flags))
	return cmd
}

// Main runs the root command with os.Args and returns the process exit code.
func Main() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(Main())
}

// logger builds a logger from the defaults, overridden by any set flags.
func (f *rootFlags) logger(w io.Writer) *slog.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = w
	if f.logLevel != "" {
		cfg.Level = logging.ParseLevel(f.logLevel)
	}
	if f.logFormat != "" {
		cfg.Format = logging.ParseFormat(f.logFormat)
	}
	return logging.New(cfg)
}
