package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/update"
)

func newUpdateCheckCommand() *cobra.Command {
	var (
		repoPath  string
		format    string
		checkOnly bool
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "update-check",
		Short: "Check for newer governance framework releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := update.ReadLocalVersion(repoPath)

			releases, err := update.FetchReleases(update.GitHubOwner, update.GitHubRepo)
			if err != nil {
				return clierr.Wrap(1, "fetching releases", err)
			}

			latest := current
			if len(releases) > 0 {
				if v, err := update.NormalizeVersion(releases[len(releases)-1].TagName); err == nil {
					latest = v
				}
			}

			updates, err := update.AvailableUpdates(releases, current)
			if err != nil {
				return clierr.Wrap(1, "comparing versions", err)
			}

			if format == "json" {
				out, err := update.FormatJSON(current, latest, updates)
				if err != nil {
					return clierr.Wrap(1, "rendering update report", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), update.FormatText(current, latest, updates, checkOnly))
			if apply && len(updates) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), update.ApplyPreview(updates))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "repository whose framework version to check")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "only report versions, skip release notes")
	cmd.Flags().BoolVar(&apply, "apply", false, "preview what applying the updates would involve")

	return cmd
}
