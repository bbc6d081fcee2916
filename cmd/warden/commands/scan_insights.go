package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/research"
)

func newScanInsightsCommand() *cobra.Command {
	var (
		days       int
		outputFile string
		keywords   []string
	)

	cmd := &cobra.Command{
		Use:   "scan-insights",
		Short: "Scan external sources for relevant agentic-engineering findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			findings := research.Scan(research.Sources, days, keywords, time.Now(), warnf)

			out, err := research.MarshalFindings(findings)
			if err != nil {
				return clierr.Wrap(1, "rendering findings", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))

			if outputFile != "" {
				if err := research.WriteFindings(findings, outputFile); err != nil {
					return clierr.Wrap(1, "writing findings", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d finding(s) to %s\n", len(findings), outputFile)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "look back this many days")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "also write findings to this JSON file")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "extra relevance keywords")

	return cmd
}
