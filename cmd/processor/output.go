package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/exporter"
	"sprintpulse/pkg/contracts/domain"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	failColor  = color.New(color.FgRed)
)

// table prints headers and records as aligned columns
func table(out io.Writer, headers []string, records [][]string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	tw.Flush()
}

func printCleaning(out io.Writer, reports []dataprocessing.CleanReport) {
	titleColor.Fprintln(out, "Cleaning")
	records := make([][]string, 0, len(reports))
	for _, r := range reports {
		records = append(records, []string{
			r.Table,
			fmt.Sprint(r.Rows),
			fmt.Sprint(r.Duplicates),
			fmt.Sprint(r.EmptyRows),
			fmt.Sprint(r.Remaining),
		})
	}
	table(out, []string{"TABLE", "ROWS", "DUPLICATES", "EMPTY", "REMAINING"}, records)
	fmt.Fprintln(out)
}

func printMetric(out io.Writer, report domain.MetricReport) {
	title := report.Kind.Title() + " metric"
	if report.Until != "" {
		title += " until " + report.Until
	}
	titleColor.Fprintln(out, title)
	if len(report.Rows) == 0 {
		warnColor.Fprintln(out, "no matching tasks")
		fmt.Fprintln(out)
		return
	}
	table(out, exporter.MetricHeaders(report.Kind), exporter.MetricRecords(report.Rows))
	fmt.Fprintln(out)
}

func printVariance(out io.Writer, rows []domain.AssigneeVariance) {
	titleColor.Fprintln(out, "Assignee variance")
	if len(rows) == 0 {
		warnColor.Fprintln(out, "no tasks selected")
		return
	}
	table(out, exporter.VarianceHeaders, exporter.VarianceRecords(rows))
}

func printSummary(out io.Writer, s domain.SprintSummary) {
	title := "Sprint " + s.SprintName
	if s.Until != "" {
		title += " until " + s.Until
	}
	titleColor.Fprintln(out, title)

	values := exporter.SummaryRecord(s)
	records := make([][]string, 0, len(values))
	for i, h := range exporter.SummaryHeaders {
		records = append(records, []string{h, values[i]})
	}
	table(out, []string{"FIELD", "VALUE"}, records)
}

func printWritten(out io.Writer, paths ...string) {
	for _, p := range paths {
		okColor.Fprintf(out, "wrote %s\n", p)
	}
}
