package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/costboard"
)

func newCostDashboardCommand() *cobra.Command {
	var (
		repoPath string
		output   string
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "cost-dashboard",
		Short: "Generate COST_DASHBOARD.md from COST_LOG.md",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if toStdout {
				fmt.Fprint(cmd.OutOrStdout(), costboard.Generate(repoPath, now))
				return nil
			}
			path, err := costboard.Write(repoPath, output, now)
			if err != nil {
				return clierr.Wrap(1, "writing cost dashboard", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cost dashboard written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "repository to analyze")
	cmd.Flags().StringVar(&output, "output", "COST_DASHBOARD.md", "output file, relative to the repository root")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the dashboard instead of writing it")

	return cmd
}
