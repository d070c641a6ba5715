package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the booking admin CLI. Subcommands attach in wire.go.
var rootCmd = &cobra.Command{
	Use:           "booking",
	Short:         "Booking funnel admin CLI",
	Long:          "Administrative utilities for the booking funnel (schema bootstrap, platform admins, dev tokens, profile approvals).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
