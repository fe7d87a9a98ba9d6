package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/files"
)

func (c *cli) dedupeCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dedupe FILE|DIR|ZIP...",
		Short: "Remove duplicate rows from raw CSV extracts",
		Long: `dedupe drops the banner line and full duplicate rows from ';' delimited
extracts. CSV files are written as <name>_processed.csv, directories are
searched recursively, and zip archives are rewritten as processed_<name>.zip.
Outputs land next to their input unless --out names a directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := files.NewDiscovery(c.fs, "").Expand(args)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				warnColor.Fprintln(c.out, "no CSV files found")
				return nil
			}

			svc := c.dedupeService()
			failed := 0
			for _, in := range inputs {
				if files.IsZip(in.Name) {
					dir := filepath.Dir(in.Path)
					if out != "" {
						dir = out
					}
					dst := filepath.Join(dir, files.ProcessedPrefix+in.Name)
					counts, err := svc.DedupeZip(cmd.Context(), in.Path, dst)
					if err != nil {
						failColor.Fprintf(c.out, "FAIL %s: %v\n", in.Path, err)
						failed++
						continue
					}
					total := 0
					for _, n := range counts {
						total += n
					}
					okColor.Fprintf(c.out, "OK   %s -> %s (%d files, %d duplicates)\n", in.Path, dst, len(counts), total)
					continue
				}

				if !files.IsCSV(in.Name) {
					warnColor.Fprintf(c.out, "SKIP %s: not a CSV or zip file\n", in.Path)
					continue
				}

				outcome, err := svc.DedupeFile(cmd.Context(), in.Path, out)
				switch {
				case dataprocessing.IsSkipped(err):
					warnColor.Fprintf(c.out, "SKIP %s: %v\n", in.Path, err)
				case err != nil:
					failColor.Fprintf(c.out, "FAIL %s: %v\n", in.Path, err)
					failed++
				default:
					okColor.Fprintf(c.out, "OK   %s -> %s (%d rows, %d duplicates)\n", in.Path, outcome.Output, outcome.Rows, outcome.Duplicates)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(inputs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for processed files and archives (default: next to the input)")
	return cmd
}
