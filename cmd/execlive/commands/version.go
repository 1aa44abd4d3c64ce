package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/cmd/execlive/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON {
			return outputResult(cmd, build.Get())
		}
		fmt.Fprintln(cmd.OutOrStdout(), build.String())
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s\n", build.Get().Go)
			if cfg, err := getConfig(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  config: %s\n", cfg.Path())
			}
		}
		return nil
	},
}
