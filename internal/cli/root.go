// Package cli implements the registryctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/bootstrap"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/observability"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Backend string
	Path    string
	Format  string // "text" | "json" | "yaml"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for registryctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "registryctl",
		Short: "Manage the donor registration store",
		Long: `registryctl registers donors and inspects the record store used by
the donor registry service. Storage settings come from the same
environment variables as the server and can be overridden with flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|file|redis|sqlite|postgres), overrides STORAGE_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "blob directory or sqlite file, overrides STORAGE_PATH")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// Execute runs the command tree and reports failures on stderr. It returns
// the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		writeError(stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// openRegistry resolves configuration and opens the store. Logs go to
// stderr so they never mix with command output.
func openRegistry(cmd *cobra.Command, opts *RootOptions) (*bootstrap.Registry, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.Path != "" {
		cfg.Storage.Path = opts.Path
	}

	logCfg := cfg.Logger
	logCfg.OutputPaths = []string{"stderr"}
	if !opts.Verbose {
		logCfg.Level = "warn"
	}
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		logger = zap.NewNop()
	}

	reg, err := bootstrap.Open(cmd.Context(), *cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, WrapExitError(ExitCommandError, "open record store", err)
	}
	return reg, func() {
		reg.Close()
		_ = logger.Sync()
	}, nil
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
