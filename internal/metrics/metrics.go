package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts provider calls per pass ("first" or "retry").
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccl_fetch_attempts_total",
		Help: "Market-data provider calls by pass.",
	}, []string{"pass"})

	// FetchFailures counts failed provider calls per pass.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccl_fetch_failures_total",
		Help: "Failed market-data provider calls by pass.",
	}, []string{"pass"})

	// OmittedSymbols counts symbols dropped after the retry pass.
	OmittedSymbols = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ccl_omitted_symbols_total",
		Help: "Symbols permanently omitted from a return panel.",
	})

	// PanelDuration observes how long a full return panel takes.
	PanelDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ccl_panel_duration_seconds",
		Help:    "Wall time to build a return panel.",
		Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 160},
	})

	// Commands counts handled bot commands by name and outcome.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccl_commands_total",
		Help: "Bot commands handled, by command and outcome.",
	}, []string{"command", "outcome"})

	// StorageErrors counts session store failures.
	StorageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ccl_storage_errors_total",
		Help: "Session store read/write failures.",
	})
)
