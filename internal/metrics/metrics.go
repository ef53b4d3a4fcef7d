package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "turns_total",
			Help:      "Conversation turns appended, by role",
		},
		[]string{"role"},
	)

	ReplyErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "reply_errors_total",
			Help:      "Reply generation calls that failed",
		},
	)

	ExtractionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "extraction_fallbacks_total",
			Help:      "Lead extractions replaced by the default record",
		},
	)

	LeadsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "leads_saved_total",
			Help:      "Leads submitted to the store, by trigger",
		},
		[]string{"trigger"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "store_errors_total",
			Help:      "Lead store failures, by operation",
		},
		[]string{"op"},
	)

	SessionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "session_latch_errors_total",
			Help:      "Save latches that could not be written to the session store",
		},
	)
)
