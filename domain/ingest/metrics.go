package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_ingest_documents_total",
		Help: "Documents processed, by kind, language and result",
	}, []string{"kind", "language", "result"})

	SectionsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_ingest_sections_total",
		Help: "Sections extracted, by section type",
	}, []string{"section_type"})

	ChunksProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_ingest_chunks_total",
		Help: "Chunks produced, by source type and outcome (written or skipped)",
	}, []string{"source_type", "outcome"})

	ChunksOverBudget = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lims_ingest_chunks_over_budget_total",
		Help: "Chunks emitted above the token budget because a legal unit could not be split",
	})

	DocumentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_ingest_document_errors_total",
		Help: "Documents that failed, by error code",
	}, []string{"code"})

	DocumentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lims_ingest_document_duration_seconds",
		Help:    "Time to process one document end to end",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	WorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lims_ingest_workers_busy",
		Help: "Documents currently being processed",
	})
)
