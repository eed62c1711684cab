package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"report-dispatch/models"
)

var (
	once sync.Once

	// TicksTotal counts simulation ticks.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "ticks_total",
		Help:      "Total number of simulation ticks run.",
	})

	// TickDurationSeconds is the time spent in one tick including persistence and fan-out.
	TickDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "tick_duration_seconds",
		Help:      "Time to run one simulation tick and publish its effects.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	// DispatchesTotal counts dispatch attempts by result.
	DispatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "dispatches_total",
		Help:      "Total number of dispatch attempts, labeled by result.",
	}, []string{"result"})

	// ReportsSubmittedTotal counts accepted report submissions.
	ReportsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "reports_submitted_total",
		Help:      "Total number of reports submitted.",
	})

	// ReportsResolvedTotal counts reports resolved by a collection.
	ReportsResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "reports_resolved_total",
		Help:      "Total number of reports resolved by a vehicle finishing collection.",
	})

	// StalledTotal counts vehicles released before arriving.
	StalledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "vehicles_stalled_total",
		Help:      "Total number of assignments abandoned after the en-route tick limit.",
	})

	// Vehicles is the current fleet size by status.
	Vehicles = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "vehicles",
		Help:      "Current number of vehicles, labeled by status.",
	}, []string{"status"})

	// PersistErrorTotal counts failed store writes.
	PersistErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cleanapp",
		Subsystem: "dispatch",
		Name:      "persist_error_total",
		Help:      "Total number of failed state writes to the database.",
	})
)

// Register registers dispatch metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			TicksTotal,
			TickDurationSeconds,
			DispatchesTotal,
			ReportsSubmittedTotal,
			ReportsResolvedTotal,
			StalledTotal,
			Vehicles,
			PersistErrorTotal,
		)
	})
}

// ObserveFleet sets the vehicle gauge from a fleet snapshot
func ObserveFleet(vehicles []models.Vehicle) {
	counts := map[models.VehicleStatus]int{
		models.VehicleIdle:       0,
		models.VehicleEnRoute:    0,
		models.VehicleCollecting: 0,
	}
	for _, v := range vehicles {
		counts[v.Status]++
	}
	for status, n := range counts {
		Vehicles.WithLabelValues(string(status)).Set(float64(n))
	}
}
