package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the generation API.
type Metrics struct {
	GenerationsTotal   prometheus.Counter
	GenerationFailures *prometheus.CounterVec
	RowsGenerated      prometheus.Counter
	ArchiveBytes       prometheus.Counter
}

// NewMetrics registers the generation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GenerationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmgen_generations_total",
			Help: "Number of completed generation runs.",
		}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmgen_generation_failures_total",
			Help: "Number of failed generation runs by error code.",
		}, []string{"code"}),
		RowsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmgen_rows_generated_total",
			Help: "Total dataset rows generated.",
		}),
		ArchiveBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmgen_archive_bytes_total",
			Help: "Total archive bytes produced.",
		}),
	}
}
