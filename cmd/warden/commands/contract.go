package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
	"github.com/bartekus/warden/internal/contract"
)

func newContractCommand() *cobra.Command {
	var (
		format  string
		ceiling int
	)

	cmd := &cobra.Command{
		Use:   "contract <file>",
		Short: "Validate a session output contract JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return clierr.Wrap(1, "reading contract", err)
			}

			data, err := contract.Parse(raw)
			if err != nil {
				return clierr.Wrap(1, path+" is not valid JSON", err)
			}

			errors := contract.Validate(data, ceiling)

			if format == "json" {
				if err := printJSON(cmd, contract.NewJSONReport(path, errors, ceiling)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), contract.FormatText(path, data, errors, ceiling))
			}

			if len(errors) > 0 {
				return gateFail("contract validation failed with %d error(s)", len(errors))
			}
			gatePass("contract is valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().IntVar(&ceiling, "ceiling", contract.DefaultConfidenceCeiling, "maximum allowed confidence value")

	return cmd
}
