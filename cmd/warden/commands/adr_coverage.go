package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/internal/adrcov"
)

func newADRCoverageCommand() *cobra.Command {
	var (
		repoPath  string
		format    string
		threshold string
	)

	cmd := &cobra.Command{
		Use:   "adr-coverage",
		Short: "Check that recorded decisions are covered by ADRs",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := adrcov.Check(repoPath)

			if format == "json" {
				if err := printJSON(cmd, adrcov.ToJSON(report)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), adrcov.FormatText(report))
			}

			if report.Uncovered > 0 {
				if threshold == "strict" {
					return gateFail("%d decision(s) lack ADR coverage", report.Uncovered)
				}
				warnf("Warning: %d decision(s) lack ADR coverage", report.Uncovered)
				return nil
			}
			gatePass("all %d decision(s) covered", report.Covered)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "path to the repository root")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&threshold, "threshold", "strict", "gating mode: strict or warn")

	return cmd
}
