package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Fetch metrics
	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_reply_pages_fetched_total",
			Help: "Total number of non-empty reply pages fetched",
		},
	)

	CommentsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_comments_fetched_total",
			Help: "Total number of raw comments fetched",
		},
	)

	FetchAborts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_fetch_aborts_total",
			Help: "Total number of fetch sessions aborted, by reason",
		},
		[]string{"reason"},
	)

	// Draw metrics
	DrawsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_draws_total",
			Help: "Total number of lottery runs, by outcome",
		},
		[]string{"outcome"},
	)

	DrawDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lottery_draw_duration_seconds",
			Help:    "Wall time of a full lottery run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)
