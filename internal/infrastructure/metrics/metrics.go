package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCreated prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram
	TransferErrors   *prometheus.CounterVec

	// Account metrics
	AccountsProvisioned prometheus.Counter
	SecretRotations     prometheus.Counter

	// Reconciliation metrics
	CreditsReconciled prometheus.Counter
	CreditsAbandoned  prometheus.Counter
	ReconcileErrors   prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits  *prometheus.CounterVec
	SecretLockouts prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_transfers_created_total",
			Help: "Total number of transfers created",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_amount",
			Help:    "Transfer amounts in minor units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_provisioned_total",
			Help: "Total number of accounts provisioned",
		}),
		SecretRotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_secret_rotations_total",
			Help: "Total number of transaction secret rotations",
		}),

		// Reconciliation metrics
		CreditsReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_credits_reconciled_total",
			Help: "Total number of pending credits applied by the reconciler",
		}),
		CreditsAbandoned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_credits_abandoned_total",
			Help: "Total number of pending credits abandoned after max attempts",
		}),
		ReconcileErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_reconcile_errors_total",
			Help: "Total number of reconciliation errors",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
		SecretLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobank_secret_lockouts_total",
			Help: "Total transfers rejected for exceeding invalid secret attempts",
		}),
	}
}
