package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/exporter"
	"sprintpulse/internal/services"
	"sprintpulse/pkg/contracts/domain"
)

// extractFlags are the input file flags shared by the report commands
type extractFlags struct {
	entities string
	history  string
	sprints  string
	until    string
}

func (f *extractFlags) register(cmd *cobra.Command, history bool) {
	cmd.Flags().StringVar(&f.entities, "entities", "", "tasks extract (CSV)")
	cmd.Flags().StringVar(&f.sprints, "sprints", "", "sprints extract (CSV)")
	_ = cmd.MarkFlagRequired("entities")
	if history {
		cmd.Flags().StringVar(&f.history, "history", "", "status history extract (CSV)")
		cmd.Flags().StringVar(&f.until, "until", "", "cutoff date, YYYY-MM-DD")
		_ = cmd.MarkFlagRequired("history")
		_ = cmd.MarkFlagRequired("sprints")
	}
}

func (f *extractFlags) paths() dataprocessing.TablePaths {
	return dataprocessing.TablePaths{Entities: f.entities, History: f.history, Sprints: f.sprints}
}

func (f *extractFlags) validate(c *cli) error {
	return c.validator().ValidateExtracts(f.entities, f.history, f.sprints)
}

func (f *extractFlags) cutoff() (*time.Time, error) {
	return dataprocessing.ParseCutoff(f.until)
}

func (c *cli) metricsCmd() *cobra.Command {
	var (
		in    extractFlags
		kinds []string
		out   string
		xlsx  bool
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute per-sprint to do, in progress and done hours",
		Example: `  processor metrics --entities tasks.csv --history history.csv --sprints sprints.csv
  processor metrics --entities tasks.csv --history history.csv --sprints sprints.csv --until 2024-03-01 --kind done --xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			until, err := in.cutoff()
			if err != nil {
				return err
			}
			selected, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			if out == "" {
				out = c.paths.ReportsDir
			}
			if err := in.validate(c); err != nil {
				return err
			}
			if err := c.validator().ValidateOutputDirectory(out); err != nil {
				return err
			}

			result, err := c.reportService().Metrics(cmd.Context(), in.paths(), selected, until)
			if err != nil {
				return err
			}

			printCleaning(c.out, result.Cleaning)
			for _, report := range result.Reports {
				printMetric(c.out, report)
			}

			written, err := exporter.NewCSVWriter(c.fs, "", c.logger).WriteMetricReports(out, result.Reports)
			if err != nil {
				return err
			}
			if xlsx {
				book := filepath.Join(out, "sprint_metrics.xlsx")
				if err := exporter.NewWorkbookWriter(c.fs, c.logger).Save(book, exporter.Workbook{Metrics: result.Reports}); err != nil {
					return err
				}
				written = append(written, book)
			}
			printWritten(c.out, written...)
			return nil
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "metrics to compute: todo, in-progress, done (default all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: the reports directory)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write an Excel workbook")
	return cmd
}

func parseKinds(names []string) ([]domain.MetricKind, error) {
	if len(names) == 0 {
		return domain.AllMetricKinds, nil
	}
	kinds := make([]domain.MetricKind, 0, len(names))
	for _, n := range names {
		k, err := domain.ParseMetricKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (c *cli) summaryCmd() *cobra.Command {
	var (
		in     extractFlags
		sprint string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize one sprint as of a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			until, err := in.cutoff()
			if err != nil {
				return err
			}
			if err := in.validate(c); err != nil {
				return err
			}
			summary, err := c.reportService().Summary(cmd.Context(), in.paths(), sprint, until)
			if err != nil {
				return err
			}
			printSummary(c.out, summary)
			return nil
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVar(&sprint, "sprint", "", "sprint name")
	_ = cmd.MarkFlagRequired("sprint")
	return cmd
}

func (c *cli) varianceCmd() *cobra.Command {
	var (
		in      extractFlags
		sprint  string
		taskIDs []int
		out     string
	)

	cmd := &cobra.Command{
		Use:   "variance",
		Short: "Compare estimated and spent hours per assignee",
		Example: `  processor variance --entities tasks.csv --sprints sprints.csv --sprint "Sprint 12"
  processor variance --entities tasks.csv --task-ids 101,102,107 -o variance.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := services.VarianceRequest{Entities: in.entities, Sprints: in.sprints, Sprint: sprint}
			for _, id := range taskIDs {
				req.TaskIDs = append(req.TaskIDs, int64(id))
			}
			if len(req.TaskIDs) == 0 && (sprint == "" || in.sprints == "") {
				return fmt.Errorf("either --task-ids or both --sprint and --sprints are required")
			}

			if err := in.validate(c); err != nil {
				return err
			}
			rows, err := c.reportService().Variance(cmd.Context(), req)
			if err != nil {
				return err
			}
			printVariance(c.out, rows)

			if out != "" {
				path, err := exporter.NewCSVWriter(c.fs, "", c.logger).WriteVariance(out, rows)
				if err != nil {
					return err
				}
				printWritten(c.out, path)
			}
			return nil
		},
	}

	in.register(cmd, false)
	cmd.Flags().StringVar(&sprint, "sprint", "", "sprint name")
	cmd.Flags().IntSliceVar(&taskIDs, "task-ids", nil, "explicit task ids; take precedence over --sprint")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the table to this CSV file")
	return cmd
}
