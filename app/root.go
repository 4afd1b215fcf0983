// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "larder",
	Short: "Larder is a self-hosted pantry and recipe manager",
	Long: `Larder is a self-hosted pantry and recipe manager. This service
hosts its user management: local and OpenID Connect sign-in, user
provisioning and the web login surface.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
