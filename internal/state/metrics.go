package state

import "github.com/prometheus/client_golang/prometheus"

var (
	// stateEntries gauges the size of each index after a sweep.
	stateEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tellonym_state_entries",
			Help: "Entries held by each ephemeral index after the last sweep.",
		},
		[]string{"index"},
	)

	// stateSwept counts entries removed by sweeps.
	stateSwept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tellonym_state_swept_total",
			Help: "Total number of expired entries removed from ephemeral indexes.",
		},
		[]string{"index"},
	)
)

func init() {
	prometheus.MustRegister(stateEntries, stateSwept)
}

func observeSweep(removed SweepResult, sizes map[string]int) {
	for name, n := range removed {
		stateSwept.WithLabelValues(name).Add(float64(n))
	}
	for name, n := range sizes {
		stateEntries.WithLabelValues(name).Set(float64(n))
	}
}
