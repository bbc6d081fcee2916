package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/costlog"
	"github.com/bartekus/warden/internal/tokens"
)

func newTokensCommand() *cobra.Command {
	var (
		repoPath string
		format   string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Estimate per-session token usage and append rows to COST_LOG.md",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := tokens.Run(cmd.Context(), repoPath)

			if format == "json" {
				if err := printJSON(cmd, result.Estimates); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), tokens.FormatText(result.Estimates))
			}

			if len(result.Estimates) == 0 || dryRun {
				if dryRun && len(result.Estimates) > 0 {
					warnf("dry run, COST_LOG.md not modified")
				}
				return nil
			}

			rows := make([]string, 0, len(result.Estimates))
			for _, e := range result.Estimates {
				rows = append(rows, tokens.FormatCostLogRow(e))
			}
			logPath := filepath.Join(repoPath, "COST_LOG.md")
			if err := costlog.AppendRows(logPath, rows, warnf); err != nil {
				return clierr.Wrap(1, "updating cost log", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %d row(s) to %s\n", len(rows), logPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "repository to analyze")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print estimates without touching COST_LOG.md")

	return cmd
}
