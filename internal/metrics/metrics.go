// Package metrics holds the Prometheus collectors of the qualifier.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QualificationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeport_qualification_runs_total",
			Help: "Total number of completed qualification runs by verdict",
		},
		[]string{"source", "verdict"},
	)

	QualificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeport_qualification_failures_total",
			Help: "Total number of qualification runs that failed",
		},
		[]string{"source", "reason"},
	)

	QualificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeport_qualification_duration_seconds",
			Help:    "Duration of a qualification run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	DefaultedFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeport_defaulted_fields_total",
			Help: "Total number of inputs that fell back to a default value",
		},
		[]string{"source"},
	)

	TemplateWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeport_template_warnings_total",
			Help: "Total number of workbook template warnings such as duplicate headers",
		},
		[]string{"source"},
	)
)
