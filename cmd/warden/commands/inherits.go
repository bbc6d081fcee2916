package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/internal/inherit"
)

func newInheritsCommand() *cobra.Command {
	var (
		repoPath  string
		file      string
		parents   []string
		format    string
		threshold string
	)

	cmd := &cobra.Command{
		Use:   "inherits",
		Short: "Validate that a CLAUDE.md honors its inherits_from parents",
		RunE: func(cmd *cobra.Command, args []string) error {
			localPath := file
			if localPath == "" {
				localPath = filepath.Join(repoPath, "CLAUDE.md")
			}

			report := inherit.Validate(localPath, parents, warnf)

			if format == "json" {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), inherit.FormatText(report))
			}

			if report.Error != "" {
				return gateFail("%s", report.Error)
			}
			if !report.Valid {
				if threshold == "strict" {
					return gateFail("%d inheritance violation(s)", len(report.Violations))
				}
				warnf("Warning: %d inheritance violation(s)", len(report.Violations))
				return nil
			}
			gatePass("inheritance constraints satisfied")
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "path to the repository root")
	cmd.Flags().StringVar(&file, "file", "", "constitution file to validate (default: <repo-path>/CLAUDE.md)")
	cmd.Flags().StringSliceVar(&parents, "parent", nil, "additional parent constitutions (path or URL), repeatable")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&threshold, "threshold", "strict", "gating mode: strict or warn")

	return cmd
}
