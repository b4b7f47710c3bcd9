package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// комнаты в памяти по варианту и статусу
	Rooms = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "partyrooms_rooms",
		Help: "Rooms held in memory by variant and status",
	}, []string{"variant", "status"})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partyrooms_actions_total",
		Help: "Submitted actions by variant, kind and result",
	}, []string{"variant", "kind", "result"})

	// trigger: read | action | sweep
	PhaseResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partyrooms_phase_resolutions_total",
		Help: "Deadline driven phase resolutions by variant and trigger",
	}, []string{"variant", "trigger"})

	SnapshotReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partyrooms_snapshot_reads_total",
		Help: "Room snapshot reads",
	})

	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partyrooms_chat_messages_total",
		Help: "Chat messages by channel",
	}, []string{"channel"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partyrooms_rate_limited_total",
		Help: "Write requests rejected by the rate limiter",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partyrooms_sweep_duration_seconds",
		Help:    "Background deadline sweep duration",
		Buckets: prometheus.DefBuckets,
	})
)

// MoveRoom переносит комнату из одного статуса в другой в гейдже
func MoveRoom(variant, from, to string) {
	if from != "" {
		Rooms.WithLabelValues(variant, from).Dec()
	}
	if to != "" {
		Rooms.WithLabelValues(variant, to).Inc()
	}
}
