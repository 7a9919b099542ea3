package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamforge_hub_events_total",
		Help: "Total number of bus events processed by the hub, by kind",
	}, []string{"kind"})

	EventsIgnoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamforge_hub_events_ignored_total",
		Help: "Total number of bus events dropped by defensive filtering",
	}, []string{"reason"})

	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamforge_broadcasts_total",
		Help: "Total number of messages fanned out to channel subscribers",
	})

	SubscriberEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamforge_subscriber_evictions_total",
		Help: "Total number of subscribers evicted after a failed delivery",
	})

	ActiveChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamforge_active_channels",
		Help: "Number of per-video channels with at least one subscriber",
	})

	PartURLsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamforge_part_urls_issued_total",
		Help: "Total number of presigned part upload URLs issued",
	})

	JobsDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamforge_jobs_dispatched_total",
		Help: "Total number of transcode jobs dispatched",
	})
)
