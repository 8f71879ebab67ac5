package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeStored          = "stored"
	outcomeFailed          = "failed"
	outcomeQuarantined     = "quarantined"
	outcomeAuditIncomplete = "audit_incomplete"
)

var (
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_files_total",
			Help: "Files handled by the ingestion pipeline, by pipeline and outcome.",
		},
		[]string{"pipeline", "outcome"},
	)

	quarantineTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_quarantine_total",
			Help: "Quarantined files by rejection reason.",
		},
		[]string{"reason"},
	)

	batchesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_rejected_total",
			Help: "Batches rejected before processing, by pipeline.",
		},
		[]string{"pipeline"},
	)
)
