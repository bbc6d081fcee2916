package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bartekus/warden/cmd/warden/internal/clierr"
)

var (
	failColor = color.New(color.FgRed, color.Bold)
	passColor = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
)

// gateFail prints a red banner to stderr and returns the exit-1 error that
// ends the command. The report itself has already gone to stdout.
func gateFail(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_, _ = failColor.Fprintln(os.Stderr, "✗ "+msg)
	return clierr.New(1, msg)
}

func gatePass(format string, args ...any) {
	_, _ = passColor.Fprintln(os.Stderr, "✓ "+fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	_, _ = warnColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

// printJSON renders v as indented JSON on the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return clierr.Wrap(1, "rendering JSON report", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
