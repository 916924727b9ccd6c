package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelnest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_settlements_total",
			Help: "Total number of payment settlements processed",
		},
		[]string{"kind", "outcome"},
	)

	WalletDepositsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novelnest_wallet_deposits_total",
			Help: "Total number of wallet deposits",
		},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_purchases_total",
			Help: "Total number of content unlocks paid from wallets",
		},
		[]string{"target"},
	)

	AuthorPayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_author_payouts_total",
			Help: "Total number of author revenue-share payouts",
		},
		[]string{"status"},
	)

	SubscriptionsActivatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_subscriptions_activated_total",
			Help: "Total number of subscription upgrades settled",
		},
		[]string{"plan"},
	)

	SearchSuggestionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "novelnest_search_suggestions_total",
			Help: "Total number of search suggestion lookups",
		},
	)

	SearchIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "novelnest_search_index_titles",
			Help: "Number of title records currently held by the search trie",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelnest_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "novelnest_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSettlement(kind, outcome string) {
	SettlementsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordDeposit() {
	WalletDepositsTotal.Inc()
}

func RecordPurchase(target string) {
	PurchasesTotal.WithLabelValues(target).Inc()
}

func RecordAuthorPayout(status string) {
	AuthorPayoutsTotal.WithLabelValues(status).Inc()
}

func RecordSubscription(plan string) {
	SubscriptionsActivatedTotal.WithLabelValues(plan).Inc()
}

func RecordSearchSuggestion() {
	SearchSuggestionsTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
