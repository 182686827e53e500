// Package cli implements the screensaver coordinator's command-line
// interface using Cobra. Each subcommand maps to an operator capability:
// run starts the coordinator daemon, status queries a running one.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ssgfxd",
	Short: "ssgfxd — the screensaver coordinator daemon",
	Long: `ssgfxd supervises which graphics process, if any, is on screen while a
host machine is idle: a default idle animation, or one of several
graphics-capable science jobs from the compute client.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
