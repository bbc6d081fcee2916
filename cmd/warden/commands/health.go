package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/health"
	"github.com/bartekus/warden/internal/projection"
)

func newHealthCommand() *cobra.Command {
	var (
		repoPath   string
		format     string
		threshold  int
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Score repository governance health (0-100) and maturity level",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := health.Calculate(repoPath)

			var rendered string
			if format == "json" {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				rendered = health.FormatText(report)
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
			}

			if outputFile != "" {
				if rendered == "" {
					rendered = health.FormatText(report)
				}
				if err := projection.AtomicWrite(outputFile, []byte(rendered+"\n")); err != nil {
					return clierr.Wrap(1, "writing "+outputFile, err)
				}
			}

			if threshold > 0 && report.Score < threshold {
				return gateFail("health score %d below threshold %d", report.Score, threshold)
			}
			if threshold > 0 {
				gatePass("health score %d meets threshold %d", report.Score, threshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "path to the repository root")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "fail when the score is below this value (0 disables the gate)")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "also write the text report to this file")

	return cmd
}
