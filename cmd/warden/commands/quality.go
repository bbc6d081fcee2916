package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/internal/quality"
)

func newQualityCommand() *cobra.Command {
	var (
		repoPath string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Grade governance documentation files (A-F)",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := quality.Check(repoPath)

			if format == "json" {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), quality.FormatText(report))
			}

			if !report.AllPass {
				return gateFail("%d file(s) graded F", report.Summary.GradeF)
			}
			gatePass("no failing grades across %d file(s)", report.Summary.TotalFiles)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "path to the repository root")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")

	return cmd
}
