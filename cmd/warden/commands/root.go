// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the warden root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("WARDEN_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "warden",
		Short:         "warden - Governance scanning and gating for AI-assisted repositories",
		Long:          "warden scans governance artifacts (CLAUDE.md, CHANGELOG.md, ADRs, cost logs), scores them, renders reports and dashboards, and gates on violations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of warden",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "warden version %s\n", version)
		},
	})

	cmd.AddCommand(newHealthCommand())
	cmd.AddCommand(newADRCoverageCommand())
	cmd.AddCommand(newDriftCommand())
	cmd.AddCommand(newInheritsCommand())
	cmd.AddCommand(newSecurityReviewCommand())
	cmd.AddCommand(newQualityCommand())
	cmd.AddCommand(newContractCommand())
	cmd.AddCommand(newTokensCommand())
	cmd.AddCommand(newCostDashboardCommand())
	cmd.AddCommand(newDashboardCommand())
	cmd.AddCommand(newProductivityCommand())
	cmd.AddCommand(newScanInsightsCommand())
	cmd.AddCommand(newUpdateCheckCommand())

	return cmd
}
