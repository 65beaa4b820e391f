package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_chat_requests_total",
		Help: "Chat requests processed, labeled by resolved response language.",
	}, []string{"language"})

	searchTierTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_search_tier_total",
		Help: "Which retrieval tier served each search, per corpus.",
	}, []string{"corpus", "tier"})

	generationRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_generation_retries_total",
		Help: "Transient completion failures that triggered a retry.",
	})

	generationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_generation_failures_total",
		Help: "Generations that exhausted retries or failed terminally.",
	})
)
