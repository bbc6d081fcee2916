package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/internal/drift"
)

func newDriftCommand() *cobra.Command {
	var (
		template  string
		target    string
		threshold float64
		format    string
	)

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Detect drift between a constitution template and a target CLAUDE.md",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := drift.Detect(template, target, threshold)

			if format == "json" {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), drift.FormatText(report))
			}

			if report.Error != "" {
				return gateFail("%s", report.Error)
			}
			if !report.Aligned {
				return gateFail("%d missing section(s), %d drifted section(s)",
					len(report.MissingSections), len(report.DriftSections))
			}
			gatePass("target is aligned with the template")
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "path to the constitution template")
	cmd.Flags().StringVar(&target, "target", ".", "target CLAUDE.md file or directory containing one")
	cmd.Flags().Float64Var(&threshold, "threshold", drift.DefaultThreshold, "section length drift tolerance ratio")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
