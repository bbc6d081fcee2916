package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/secscan"
)

func newSecurityReviewCommand() *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "security-review",
		Short: "Scan added lines of a unified diff for security issues",
		Long:  "Reads a unified diff from stdin (or --file) and scans every added line against the security pattern table. Critical findings fail the gate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var diff []byte
			var err error
			if file != "" {
				diff, err = os.ReadFile(file)
				if err != nil {
					return clierr.Wrap(1, "reading diff", err)
				}
			} else {
				diff, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return clierr.Wrap(1, "reading diff from stdin", err)
				}
			}

			report := secscan.BuildReport(string(diff))

			if format == "text" {
				out := cmd.OutOrStdout()
				for _, f := range report.Findings {
					fmt.Fprintf(out, "[%s] %s at %s:%d: %s\n", f.Severity, f.Pattern, f.File, f.Line, f.Description)
				}
				fmt.Fprintf(out, "Findings: %d critical, %d high, %d medium, %d low\n",
					report.Summary.Critical, report.Summary.High, report.Summary.Medium, report.Summary.Low)
			} else {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			}

			if report.Summary.Critical > 0 {
				return gateFail("%d critical security finding(s)", report.Summary.Critical)
			}
			gatePass("no critical security findings")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the diff from this file instead of stdin")
	cmd.Flags().StringVar(&format, "format", "json", "output format: text or json")

	return cmd
}
