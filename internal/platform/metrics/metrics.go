package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_http_requests_total",
			Help: "Total HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adoption_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	CouponEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_coupon_evaluations_total",
			Help: "Coupon evaluations by result (valid, invalid reason)",
		},
		[]string{"result"},
	)

	PromotionsPurchased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_promotions_purchased_total",
			Help: "Pet promotions purchased, split by free/paid path and outcome",
		},
		[]string{"path", "outcome"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_recommendations_served_total",
			Help: "Recommendation requests by pool source",
		},
		[]string{"source"},
	)

	UploadsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_uploads_total",
			Help: "Uploads handled by the image service (stored, deduplicated, rejected)",
		},
		[]string{"result"},
	)
)
