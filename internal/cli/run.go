package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scicoord/ssgfx/internal/daemon"
)

func init() {
	runCmd.Flags().StringVar(&runStatusAddr, "status-addr", "", "Address for the status HTTP server (overrides config)")
	rootCmd.AddCommand(runCmd)
}

var runStatusAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the screensaver coordinator",
	Long:  `Start the coordinator's tick loop and status HTTP server, blocking until stopped.`,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}
	defer d.Close()

	if runStatusAddr != "" {
		d.Config.StatusAddr = runStatusAddr
	}

	return d.Serve(context.Background())
}
