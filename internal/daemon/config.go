// Package daemon wires the coordinator and its collaborators into a running
// process: config loading, the status HTTP surface, and graceful shutdown.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/scicoord/ssgfx/internal/tasks"
)

// Config is the coordinator's on-disk configuration (spec.md §6), decoded
// from a TOML document. A missing file falls back to DefaultConfig
// wholesale; unknown keys are ignored, matching the teacher's own
// "missing file -> defaults" contract for its config.toml.
type Config struct {
	Phases PhaseTOML `toml:"phases"`

	// DefaultSaverPath and DefaultSaverWorkDir locate the well-known
	// default-saver executable for this platform (spec.md §6). Absence at
	// startup permanently disables the DEFAULT phase for the run.
	DefaultSaverPath    string `toml:"default_saver_path"`
	DefaultSaverWorkDir string `toml:"default_saver_work_dir"`

	// BlankTimeout is the host-idle duration after which the coordinator
	// requests its own shutdown (spec.md §4.6 step 1). Zero disables it.
	BlankTimeout duration `toml:"blank_timeout"`

	// HelperUser names the account the privileged helper launches graphics
	// processes as, when privilege separation is required on this host.
	HelperUser string `toml:"helper_user"`

	// HelperPath, if set, launches graphics processes through an
	// out-of-process privileged helper instead of direct os/exec.
	HelperPath string `toml:"helper_path"`

	// LaunchViaRPC routes science launch/stop through the compute client's
	// run_graphics_app verb instead of the local supervisor (spec.md §6).
	LaunchViaRPC bool `toml:"launch_via_rpc"`

	// StatusAddr is the local HTTP surface for /status, /healthz, /metrics.
	StatusAddr string `toml:"status_addr"`
}

// PhaseTOML mirrors spec.md §6's four screensaver-phase options.
type PhaseTOML struct {
	DefaultSSFirst           bool     `toml:"default_ss_first"`
	DefaultGfxDuration       duration `toml:"default_gfx_duration"`
	ScienceGfxDuration       duration `toml:"science_gfx_duration"`
	ScienceGfxChangeInterval duration `toml:"science_gfx_change_interval"`
}

// duration decodes a TOML string like "300s" via time.ParseDuration, the
// same convention the teacher's own config uses for interval fields.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = duration(parsed)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d duration) Duration() time.Duration { return time.Duration(d) }

// ToPhaseConfig converts the decoded TOML section into the type
// tasks.PhaseClock actually consumes.
func (p PhaseTOML) ToPhaseConfig() tasks.PhaseConfig {
	return tasks.PhaseConfig{
		DefaultPeriod: p.DefaultGfxDuration.Duration(),
		SciencePeriod: p.ScienceGfxDuration.Duration(),
		ChangePeriod:  p.ScienceGfxChangeInterval.Duration(),
	}
}

// DefaultConfig returns the coordinator's built-in defaults: the original's
// GFX_DEFAULT_PERIOD / GFX_SCIENCE_PERIOD / GFX_CHANGE_PERIOD constants
// (spec.md §6), a disabled blank timer, and the direct-exec launch path.
func DefaultConfig() Config {
	home := ssgfxHome()
	return Config{
		Phases: PhaseTOML{
			DefaultSSFirst:           false,
			DefaultGfxDuration:       duration(300 * time.Second),
			ScienceGfxDuration:       duration(300 * time.Second),
			ScienceGfxChangeInterval: duration(180 * time.Second),
		},
		DefaultSaverWorkDir: home,
		StatusAddr:          "127.0.0.1:7790",
	}
}

// LoadConfig reads config from ~/.ssgfx/ss_config.toml, falling back to
// DefaultConfig if the file doesn't exist.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(ssgfxHome(), "ss_config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to ~/.ssgfx/ss_config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(ssgfxHome(), "ss_config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ssgfxHome returns the coordinator's data directory.
func ssgfxHome() string {
	if env := os.Getenv("SSGFX_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ssgfx")
}

// Home is exported for use by other packages (history DB path, etc).
func Home() string {
	return ssgfxHome()
}
