// Package metrics exposes Prometheus collectors for the poll pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the poll pipeline collectors.
type Metrics struct {
	PollRuns          prometheus.Counter
	ChannelsProcessed prometheus.Counter
	ChannelsFailed    prometheus.Counter
	VideosAdded       prometheus.Counter
	VideosUpdated     prometheus.Counter
	FetchErrors       prometheus.Counter
	PollDuration      prometheus.Histogram
}

// New registers the collectors with the given registerer and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PollRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_runs_total",
			Help: "Number of completed poll runs.",
		}),
		ChannelsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_channels_processed_total",
			Help: "Number of channels successfully polled.",
		}),
		ChannelsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_channels_failed_total",
			Help: "Number of channel poll attempts that were skipped on error.",
		}),
		VideosAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_videos_added_total",
			Help: "Number of newly discovered videos.",
		}),
		VideosUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_videos_updated_total",
			Help: "Number of already-known videos refreshed.",
		}),
		FetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_fetch_errors_total",
			Help: "Number of feed fetches that failed.",
		}),
		PollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poll_run_duration_seconds",
			Help:    "Duration of poll runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
