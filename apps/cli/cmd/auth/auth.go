package auth

import "github.com/spf13/cobra"

// Command groups token helpers for local and CI environments.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Token helpers for local development",
	}
	cmd.AddCommand(devTokenCommand())
	cmd.AddCommand(signedTokenCommand())
	return cmd
}
