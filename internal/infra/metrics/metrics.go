// Package metrics provides Prometheus metrics for the screensaver
// coordinator: tick cadence, launches/terminates, phase transitions,
// launch latency, and the current error code, exposed the same way the
// daemon's own observability layer does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scicoord/ssgfx/internal/domain"
)

// ─── Tick loop ──────────────────────────────────────────────────────────────

// TicksTotal counts slow-tick iterations (spec.md §4.6, the 1Hz pass).
var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ssgfx",
	Name:      "ticks_total",
	Help:      "Total slow-tick iterations run by the coordinator.",
})

// ─── Phases ─────────────────────────────────────────────────────────────────

// PhaseTransitions counts DEFAULT<->SCIENCE phase switches by direction.
var PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ssgfx",
	Name:      "phase_transitions_total",
	Help:      "Total phase transitions by direction.",
}, []string{"direction"})

// CurrentPhase reports the active phase (0=default, 1=science).
var CurrentPhase = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ssgfx",
	Name:      "current_phase",
	Help:      "Current phase (0=default, 1=science).",
})

// ─── Process lifecycle ──────────────────────────────────────────────────────

// LaunchesTotal counts graphics process launches by kind and outcome.
var LaunchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ssgfx",
	Name:      "launches_total",
	Help:      "Total graphics process launches by kind and outcome.",
}, []string{"kind", "outcome"})

// TerminatesTotal counts graphics process terminations by kind.
var TerminatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ssgfx",
	Name:      "terminates_total",
	Help:      "Total graphics process terminations by kind.",
}, []string{"kind"})

// LaunchLatency tracks time from Launch call to a confirmed pid.
var LaunchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ssgfx",
	Name:      "launch_latency_seconds",
	Help:      "Time from launch request to confirmed process pid.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 4, 8},
})

// ─── Errors ─────────────────────────────────────────────────────────────────

// CurrentErrorCode reports the coordinator's current (mode, code) pair as a
// gauge per code, 1 for the active code and 0 otherwise.
var CurrentErrorCode = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "ssgfx",
	Name:      "current_error_code",
	Help:      "1 for the currently active error code, 0 otherwise.",
}, []string{"code"})

var allErrorCodes = []domain.ErrorCode{
	domain.CodeLoading,
	domain.CodeBlanked,
	domain.CodeNoGraphicsAppsExecuting,
	domain.CodeCantLaunchDefault,
	domain.CodeDefaultCantConnect,
	domain.CodeDefaultCrashed,
}

// SetCurrentErrorCode marks code as the sole active error code, zeroing
// the gauge for every other known code.
func SetCurrentErrorCode(code domain.ErrorCode) {
	for _, c := range allErrorCodes {
		v := 0.0
		if c == code {
			v = 1
		}
		CurrentErrorCode.WithLabelValues(c.String()).Set(v)
	}
}

// ─── Client link ────────────────────────────────────────────────────────────

// LinkReconnects counts RPC link reconnect attempts and their outcome.
var LinkReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ssgfx",
	Name:      "link_reconnects_total",
	Help:      "Total RPC link reconnect attempts by outcome.",
}, []string{"outcome"})

// LinkConnected reports whether the RPC link is currently up (1) or down (0).
var LinkConnected = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ssgfx",
	Name:      "link_connected",
	Help:      "1 if the RPC link is connected, 0 otherwise.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "ssgfx",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
