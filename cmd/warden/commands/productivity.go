package commands

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/productivity"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func newProductivityCommand() *cobra.Command {
	var (
		repoPath string
		days     int
		since    string
		until    string
		author   string
	)

	cmd := &cobra.Command{
		Use:   "productivity",
		Short: "Analyze commit history for velocity and governance compliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if since != "" && cmd.Flags().Changed("days") {
				return clierr.New(1, "use either --days or --since, not both")
			}
			if since == "" {
				since = time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
			}
			for _, date := range []string{since, until} {
				if date != "" && !isoDateRe.MatchString(date) {
					return clierr.Newf(1, "invalid date %q, expected YYYY-MM-DD", date)
				}
			}

			report, err := productivity.Run(cmd.Context(), repoPath, productivity.Options{
				Since:  since,
				Until:  until,
				Author: author,
			})
			if err != nil {
				return clierr.Wrap(1, "analyzing commit history", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "repository to analyze")
	cmd.Flags().IntVar(&days, "days", 30, "analyze the last N days")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD), overrides --days")
	cmd.Flags().StringVar(&until, "until", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&author, "author", "", "restrict to commits by this author")

	return cmd
}
