package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sprintpulse/internal/config"
	"sprintpulse/internal/infrastructure"
	"sprintpulse/internal/services"
	"sprintpulse/internal/validation"
)

// cli carries the state shared by every subcommand
type cli struct {
	configFile string
	logLevel   string
	noColor    bool

	fs     afero.Fs
	out    io.Writer
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

func newCLI(fsys afero.Fs) *cli {
	return &cli{fs: fsys}
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "processor",
		Short:         "Sprint workload reports and CSV dedupe",
		Long:          "processor loads task, history and sprint extracts and computes per-sprint workload\nmetrics, sprint summaries and assignee variance. It also removes duplicate rows\nfrom raw CSV extracts.",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (default: $SPRINTPULSE_CONFIG_FILE or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		c.metricsCmd(),
		c.summaryCmd(),
		c.varianceCmd(),
		c.dedupeCmd(),
	)

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nrun '%s --help' for usage", err, cmd.CommandPath())
	})
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.noColor {
		color.NoColor = true
	}
	c.out = cmd.OutOrStdout()
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))

	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFile(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.logger = infrastructure.NewLogger(cmd.ErrOrStderr(), level)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return err
	}
	c.paths = paths
	return nil
}

func (c *cli) reportService() *services.ReportService {
	return services.NewReportService(c.fs, c.cfg.Pipeline, nil, c.logger)
}

func (c *cli) dedupeService() *services.DedupeService {
	return services.NewDedupeService(c.fs, nil, services.DedupeOptions{
		TempDir:       c.paths.TempDir,
		Workers:       c.cfg.Pipeline.DedupeWorkers,
		MaxEntryBytes: c.cfg.Server.MaxUploadBytes,
	}, nil, c.logger)
}

func (c *cli) validator() *validation.FileValidator {
	return validation.NewFileValidator(c.fs, c.logger)
}
