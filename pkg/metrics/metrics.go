package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeckRequests records findOrGenerate outcomes (hit|expired|miss).
	DeckRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrokiddo_deck_requests_total",
			Help: "Total deck cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// DeckGenerations counts calls to the external lesson generator by result (success|failure).
	DeckGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrokiddo_deck_generations_total",
			Help: "Total external lesson generation calls",
		},
		[]string{"result"},
	)

	// TTSRequests records audio cache outcomes (hit|synthesized|failure).
	TTSRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrokiddo_tts_requests_total",
			Help: "Total TTS audio requests by outcome",
		},
		[]string{"outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrokiddo_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
