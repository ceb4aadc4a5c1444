package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	chatConnectionsTotal    prometheus.Counter
	messagesSentTotal       *prometheus.CounterVec
	streamSnapshotsTotal    *prometheus.CounterVec
	conversationResetsTotal prometheus.Counter
	retentionDeletedTotal   *prometheus.CounterVec
	uploadRejectedTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		chatConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total number of websocket chat connections accepted.",
		})

		messagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages stored, by kind.",
		}, []string{"kind"})

		streamSnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stream_snapshots_total",
			Help: "Total number of conversation snapshot builds, by result.",
		}, []string{"result"})

		conversationResetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conversation_resets_total",
			Help: "Total number of conversations cleared by the history cap.",
		})

		retentionDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_deleted_total",
			Help: "Total number of messages deleted by retention runs, by trigger.",
		}, []string{"trigger"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Total number of rejected attachment uploads, by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			chatConnectionsTotal,
			messagesSentTotal,
			streamSnapshotsTotal,
			conversationResetsTotal,
			retentionDeletedTotal,
			uploadRejectedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ChatConnections exposes the websocket connection counter.
func ChatConnections() prometheus.Counter {
	RegisterMetrics()
	return chatConnectionsTotal
}

// MessagesSent exposes the stored-message counter.
func MessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesSentTotal
}

// StreamSnapshots exposes the snapshot-build counter.
func StreamSnapshots() *prometheus.CounterVec {
	RegisterMetrics()
	return streamSnapshotsTotal
}

// ConversationResets exposes the history-cap reset counter.
func ConversationResets() prometheus.Counter {
	RegisterMetrics()
	return conversationResetsTotal
}

// RetentionDeleted exposes the retention deletion counter.
func RetentionDeleted() *prometheus.CounterVec {
	RegisterMetrics()
	return retentionDeletedTotal
}

// UploadRejected exposes the rejected-upload counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}
