package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processesRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "warden",
		Name:      "processes_running",
		Help:      "Number of registry records currently in the running state.",
	})

	processStarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_starts_total",
		Help:      "Total processes started, labeled by lifetime policy.",
	}, []string{"policy"})

	processStops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_stops_total",
		Help:      "Total explicit stop requests that removed a record.",
	})

	processCrashes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_crashes_total",
		Help:      "Total processes observed exiting with a failure.",
	})

	healthScans = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "health_scans_total",
		Help:      "Total health scans completed by the monitor loop.",
	})

	healthScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "warden",
		Name:      "health_scan_duration_seconds",
		Help:      "Duration of monitor health scans in seconds.",
	})

	reconciliationRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "reconciliation_removed_total",
		Help:      "Total stale records removed during startup reconciliation.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "warden",
		Name:      "build_info",
		Help:      "Build metadata for the running warden binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(
		processesRunning,
		processStarts,
		processStops,
		processCrashes,
		healthScans,
		healthScanDuration,
		reconciliationRemoved,
		buildInfo,
	)
}

// Registry returns the Prometheus registry containing all warden metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetProcessesRunning records the current number of running records.
func SetProcessesRunning(n int) {
	if n < 0 {
		n = 0
	}
	processesRunning.Set(float64(n))
}

// IncrementProcessStart counts a successful start under its lifetime policy.
func IncrementProcessStart(policy string) {
	if policy == "" {
		policy = "unknown"
	}
	processStarts.WithLabelValues(policy).Inc()
}

// IncrementProcessStop counts a stop request that removed a record.
func IncrementProcessStop() {
	processStops.Inc()
}

// IncrementProcessCrash counts a process observed exiting with a failure.
func IncrementProcessCrash() {
	processCrashes.Inc()
}

// ObserveHealthScan records one completed health scan and its duration.
func ObserveHealthScan(d time.Duration) {
	healthScans.Inc()
	healthScanDuration.Observe(d.Seconds())
}

// AddReconciliationRemoved counts records removed by startup reconciliation.
func AddReconciliationRemoved(n int) {
	if n <= 0 {
		return
	}
	reconciliationRemoved.Add(float64(n))
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
