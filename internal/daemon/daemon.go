package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scicoord/ssgfx/internal/blank"
	"github.com/scicoord/ssgfx/internal/coordinator"
	"github.com/scicoord/ssgfx/internal/health"
	"github.com/scicoord/ssgfx/internal/history"
	"github.com/scicoord/ssgfx/internal/infra/engine"
	_ "github.com/scicoord/ssgfx/internal/infra/metrics" // registers Prometheus collectors
	"github.com/scicoord/ssgfx/internal/rpc"
	"github.com/scicoord/ssgfx/internal/status"
	"github.com/scicoord/ssgfx/internal/tasks"
)

// Daemon wires the coordinator and its collaborators into a running
// process: the tick loop, the audit history log, background health checks,
// and the local status HTTP surface.
type Daemon struct {
	Config Config
	RunID  string

	Hist        *history.DB
	Health      *health.Checker
	Coordinator *coordinator.Coordinator
	Status      *status.Record
	BlankMon    *blank.Monitor

	statusHTTP *http.Server
	cancel     context.CancelFunc
}

// New loads config from disk and builds a Daemon around an unconfigured
// RPC transport (see rpc.UnconfiguredHandle) — the compute client's wire
// protocol is out of scope for this module (spec.md §1).
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, rpc.UnconfiguredHandle{})
}

// NewWithConfig builds a Daemon around the given config and RPC handle. A
// caller that owns a real compute-client transport passes it as link;
// tests and the CLI's default path pass rpc.UnconfiguredHandle{}.
func NewWithConfig(cfg Config, link rpc.Handle) (*Daemon, error) {
	hist, err := history.Open(Home())
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	runID := hist.RunID()

	var helper engine.PrivilegedHelper
	if cfg.HelperPath != "" {
		statePath := cfg.HelperPath + ".state"
		helper = engine.NewExecHelper(cfg.HelperPath, statePath)
	}
	supervisor := engine.New(helper)

	clientLink := rpc.NewClientLink(link)
	selector := tasks.NewSelector(time.Now().UnixNano())
	incompat := tasks.NewIncompatibilitySet()
	blankMon := blank.NewMonitor(blank.Config{Timeout: cfg.BlankTimeout.Duration()})
	rec := status.New()

	checker := health.NewChecker(hist, cfg.DefaultSaverPath, cfg.DefaultSaverWorkDir)

	coordCfg := coordinator.Config{
		Phases:              cfg.Phases.ToPhaseConfig(),
		StartInDefault:      cfg.Phases.DefaultSSFirst,
		DefaultSaverPath:    cfg.DefaultSaverPath,
		DefaultSaverWorkDir: cfg.DefaultSaverWorkDir,
		BlankTimeout:        cfg.BlankTimeout.Duration(),
		HelperUser:          cfg.HelperUser,
		LaunchViaRPC:        cfg.LaunchViaRPC,
	}
	coord := coordinator.New(coordCfg, supervisor, clientLink, selector, incompat, blankMon, rec, hist)

	return &Daemon{
		Config:      cfg,
		RunID:       runID,
		Hist:        hist,
		Health:      checker,
		Coordinator: coord,
		Status:      rec,
		BlankMon:    blankMon,
	}, nil
}

// Serve runs the coordinator's tick loop and the status HTTP server until
// ctx is cancelled or a termination signal arrives, then tears both down.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	statusSrv := newStatusServer(d.Status, d.Health, d.BlankMon, d.RunID)
	addr := d.Config.StatusAddr
	if addr == "" {
		addr = "127.0.0.1:7790"
	}
	d.statusHTTP = &http.Server{
		Addr:         addr,
		Handler:      statusSrv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	coordErrCh := make(chan error, 1)
	go func() { coordErrCh <- d.Coordinator.Run(ctx) }()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = d.statusHTTP.Shutdown(shutdownCtx)
	}()

	fmt.Printf("ssgfxd coordinator running (run %s), status on http://%s\n", d.RunID, addr)

	if err := d.statusHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	if err := <-coordErrCh; err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Close releases the daemon's resources without waiting for a graceful
// tick-loop shutdown; used by tests and error paths in main.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Hist != nil {
		if err := d.Hist.Close(); err != nil {
			log.Printf("[daemon] history close: %v", err)
		}
	}
}
