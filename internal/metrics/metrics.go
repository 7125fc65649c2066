package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Claim metrics
	// ============================================
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"module", "outcome"},
	)

	ClaimErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_claim_errors_total",
			Help: "Total number of rejected claim attempts by error type",
		},
		[]string{"module", "error_type"},
	)

	ClaimDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airdrop_claim_duration_seconds",
			Help:    "Claim attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"module"},
	)

	// ============================================
	// Vault dispatch metrics
	// ============================================
	VaultDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_vault_dispatches_total",
			Help: "Total number of vault asset dispatches",
		},
		[]string{"kind", "outcome"},
	)

	// ============================================
	// Startup rehydration metrics
	// ============================================
	RehydratedClaims = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airdrop_rehydrated_claims",
		Help: "Number of claimed allocation bits restored from storage at startup",
	})

	RehydratedNonceIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airdrop_rehydrated_nonce_identities",
		Help: "Number of nonce counters restored from storage at startup",
	})
)
