package model

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandleUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytrelay_handled_updates_total",
			Help: "Total updates received from Telegram",
		},
		[]string{"bot_link"},
	)
	DownloadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytrelay_download_attempts_total",
			Help: "Downloader invocations by quality tier and outcome",
		},
		[]string{"tier", "result"},
	)
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytrelay_deliveries_total",
			Help: "Finished requests by terminal state",
		},
		[]string{"state"},
	)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytrelay_cache_lookups_total",
			Help: "file_id cache lookups by result",
		},
		[]string{"result"},
	)
	RateLimitedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytrelay_rate_limited_total",
			Help: "Link requests rejected by the per-chat limiter",
		},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytrelay_request_duration_seconds",
			Help:    "Time from update receipt to terminal state",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"state"},
	)
)
