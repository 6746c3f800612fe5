package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var detectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "censor_detect_duration_sec",
	Help: "Duration of detector plugin calls",
}, []string{"plugin"})

var detectCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "censor_detect_count",
	Help: "Number of detector plugin calls, by outcome",
}, []string{"plugin", "status"})

var framesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "censor_video_frames",
	Help: "Number of video frames processed, by pipeline state",
}, []string{"state"})

var trackerLosses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "censor_tracker_losses",
	Help: "Number of trackers dropped after a failed update",
})

var mutedIntervals = promauto.NewCounter(prometheus.CounterOpts{
	Name: "censor_audio_muted_intervals",
	Help: "Number of audio intervals replaced with the censor tone",
})

var requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "censor_requests",
	Help: "Number of censor requests, by media kind and error kind",
}, []string{"kind", "status"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "censor_request_duration_sec",
	Help:    "Total duration of censor requests",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
}, []string{"kind"})
