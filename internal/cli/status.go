package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "127.0.0.1:7790", "Address of the running coordinator's status server")
	rootCmd.AddCommand(statusCmd)
}

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running coordinator's status",
	RunE:  runStatus,
}

// coordinatorStatus mirrors the JSON body statusServer.handleStatus writes.
type coordinatorStatus struct {
	RunID         string  `json:"run_id"`
	StopRequested bool    `json:"stop_requested"`
	Stopped       bool    `json:"stopped"`
	ErrorMode     bool    `json:"error_mode"`
	ErrorCode     int     `json:"error_code"`
	Phase         int     `json:"phase"`
	Pid           int     `json:"pid"`
	IdleSeconds   float64 `json:"idle_seconds"`
	HasDisplay    bool    `json:"has_display"`
	ScreenLocked  bool    `json:"screen_locked"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/status", statusAddr))
	if err != nil {
		return fmt.Errorf("query coordinator status: %w", err)
	}
	defer resp.Body.Close()

	var st coordinatorStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}

	fmt.Printf("run:      %s\n", st.RunID)
	fmt.Printf("phase:    %d\n", st.Phase)
	fmt.Printf("pid:      %d\n", st.Pid)
	fmt.Printf("error:    mode=%v code=%d\n", st.ErrorMode, st.ErrorCode)
	fmt.Printf("idle:     %.0fs display=%v locked=%v\n", st.IdleSeconds, st.HasDisplay, st.ScreenLocked)
	fmt.Printf("stopping: requested=%v stopped=%v\n", st.StopRequested, st.Stopped)
	return nil
}
