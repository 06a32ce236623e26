package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raven-betanet/classinspect/internal/checks"
	"github.com/raven-betanet/classinspect/internal/inspect"
	"github.com/raven-betanet/classinspect/internal/output"
	"github.com/raven-betanet/classinspect/internal/utils"
)

// exitError carries a process exit code for failures that were already
// reported on stdout.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// options holds the flags shared by every subcommand
type options struct {
	configFile string
	format     string
	verbose    bool
	recursive  bool
	checkIDs   []string

	manager *utils.ConfigManager
	config  *utils.Config
	logger  *utils.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "classinspect",
		Short: "Class file header inspector",
		Long: `classinspect reads the 8-byte header of compiled class files and reports the
magic number, the runtime release that produced the file and the minor version.

Paths may be single class files, jar/war/ear/zip archives, or directories.

Examples:
  classinspect inspect Main.class
  classinspect inspect app.jar --format table
  classinspect check ./build/classes --recursive
  classinspect versions`,
		Version:       utils.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format (text, table, json, yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newVersionsCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))

	return cmd
}

// setup loads configuration, applies flag overrides and attaches a logger
// to the command context.
func (o *options) setup(cmd *cobra.Command) error {
	bootstrap := utils.LoggerConfig{
		Level:  utils.LogLevelInfo,
		Format: utils.LogFormatText,
		Output: cmd.ErrOrStderr(),
	}
	if o.verbose {
		bootstrap.Level = utils.LogLevelDebug
	}

	manager := utils.NewConfigManager()
	manager.SetLogger(utils.NewLogger(bootstrap))
	if err := manager.LoadConfig(o.configFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("format") {
		if err := manager.SetConfigValue("output.format", o.format); err != nil {
			return fmt.Errorf("invalid --format: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("recursive"); f != nil && f.Changed {
		if err := manager.SetConfigValue("inspect.recursive", o.recursive); err != nil {
			return fmt.Errorf("invalid --recursive: %w", err)
		}
	}

	config := manager.GetConfig()
	loggerConfig := config.Log
	loggerConfig.Output = cmd.ErrOrStderr()
	if o.verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	o.logger = utils.NewLogger(loggerConfig)
	manager.SetLogger(o.logger)

	o.manager = manager
	o.config = config

	cmd.SetContext(utils.WithLogger(cmd.Context(), o.logger))
	return nil
}

func (o *options) printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(o.config.Output.Format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}

func (o *options) inspect(ctx context.Context, path string) ([]inspect.Result, error) {
	inspector := inspect.NewInspector(inspect.Options{
		Recursive:  o.config.Inspect.Recursive,
		MaxEntries: o.config.Inspect.MaxEntries,
	}, utils.LoggerFromContext(ctx))

	results, err := inspector.InspectPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	return results, nil
}

func newInspectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect <path>",
		Aliases: []string{"show"},
		Short:   "Decode and print class file headers",
		Long: `Decode the header of a class file, or of every class file inside an archive
or directory, and print the magic number, major version and minor version.

Exit codes:
  0 - All headers decoded
  1 - One or more files are not valid class files
  2 - Invalid arguments, configuration or unreadable path`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into subdirectories")
	return cmd
}

func runInspect(cmd *cobra.Command, opts *options, path string) error {
	ctx := cmd.Context()
	logger := utils.LoggerFromContext(ctx)

	printer, err := opts.printer(cmd)
	if err != nil {
		return err
	}

	logger.WithComponent("classinspect").Debugf("Inspecting %s", path)
	results, err := opts.inspect(ctx, path)
	if err != nil {
		return err
	}

	report := output.NewHeaderReport(path, results)
	if err := printer.Print(report); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	if report.Summary.Total == 0 {
		logger.WithComponent("classinspect").Warnf("No class files found under %s", path)
		return &exitError{code: 1, msg: "no class files found"}
	}
	if report.Summary.Failed > 0 {
		logger.WithComponent("classinspect").Errorf("Could not parse %d of %d files",
			report.Summary.Failed, report.Summary.Total)
		return &exitError{code: 1, msg: "invalid class files"}
	}
	return nil
}

func newCheckCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Run header checks against class files",
		Long: `Run header checks against a class file, archive or directory.

Checks:
  check-1-magic-number         every file starts with 0xCAFEBABE
  check-2-known-major-version  every major version is a known release
  check-3-minimum-version      no class targets a release older than checks.min_major_version
  check-4-consistent-version   all classes target the same release

Use --checks to run a subset, e.g. --checks check-1-magic-number,check-3-minimum-version.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Invalid arguments, configuration or unreadable path`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().StringSliceVar(&opts.checkIDs, "checks", nil, "Run only the listed check IDs")
	return cmd
}

func runChecks(cmd *cobra.Command, opts *options, path string) error {
	ctx := cmd.Context()
	logger := utils.LoggerFromContext(ctx)

	printer, err := opts.printer(cmd)
	if err != nil {
		return err
	}

	minimum, _, err := opts.config.Checks.MinimumMajorVersion()
	if err != nil {
		return err
	}

	registry := checks.NewCheckRegistry()
	for _, check := range checks.DefaultChecks(minimum, opts.config.Checks.AllowUnknownMajor) {
		registry.Register(check)
	}
	for _, id := range opts.checkIDs {
		if _, ok := registry.Get(id); !ok {
			return fmt.Errorf("unknown check: %s", id)
		}
	}

	results, err := opts.inspect(ctx, path)
	if err != nil {
		return err
	}

	runner := checks.NewCheckRunner(registry, opts.config.Checks.Skip...)
	var report *checks.CheckReport
	if len(opts.checkIDs) > 0 {
		logger.WithComponent("checks").Infof("Running %d selected checks against %d class files", len(opts.checkIDs), len(results))
		report = runner.RunSelected(path, results, opts.checkIDs)
	} else {
		logger.WithComponent("checks").Infof("Running %d checks against %d class files", len(registry.List()), len(results))
		report = runner.RunAll(path, results)
	}

	if err := printer.Print(output.CheckReport{CheckReport: *report}); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	summary := report.Summary
	if !report.Passed() {
		logger.WithComponent("checks").Errorf("Header checks failed (passed: %d, failed: %d, skipped: %d, total: %d)",
			summary.Passed, summary.Failed+summary.Errors, summary.Skipped, summary.Total)
		return &exitError{code: 1, msg: "checks failed"}
	}

	logger.WithComponent("checks").Infof("All header checks passed (passed: %d, skipped: %d, total: %d)",
		summary.Passed, summary.Skipped, summary.Total)
	return nil
}

func newVersionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the known class file major versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			return printer.Print(output.NewReleaseTable())
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective configuration",
		Long: `Show or save the configuration after defaults, the config file, CLASSINSPECT_*
environment variables and command line flags have been applied.

Examples:
  classinspect config get checks.min_major_version
  classinspect config save ~/.classinspect/config.yaml --format json`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := opts.manager.GetConfigValue(args[0])
			if !ok {
				return fmt.Errorf("unknown configuration key: %s", args[0])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save [file]",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "config.yaml"
			if len(args) == 1 {
				file = args[0]
			}
			if err := opts.manager.SaveConfig(file); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", file)
			return err
		},
	})

	return cmd
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			info := utils.GetBuildInfo()
			if printer.Format() == output.FormatText {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "classinspect version %s\n", info.Version)
				fmt.Fprintf(out, "Commit: %s\n", info.Commit)
				fmt.Fprintf(out, "Built: %s\n", info.Date)
				return nil
			}
			return printer.Print(info)
		},
	}
}
