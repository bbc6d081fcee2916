package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/board"
)

func newDashboardCommand() *cobra.Command {
	var (
		repoPath string
		output   string
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Generate the governance dashboard from repository artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if toStdout {
				fmt.Fprint(cmd.OutOrStdout(), board.Generate(repoPath, now))
				return nil
			}
			path, err := board.Write(repoPath, output, now)
			if err != nil {
				return clierr.Wrap(1, "writing dashboard", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "repository to analyze")
	cmd.Flags().StringVar(&output, "output", "DASHBOARD.md", "output file, relative to the repository root")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the dashboard instead of writing it")

	return cmd
}
