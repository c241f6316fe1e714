package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	chatMessagesSent      prometheus.Counter
	chatMessagesReceived  prometheus.Counter
	notificationsReceived *prometheus.CounterVec
	socketDialsTotal      *prometheus.CounterVec
	socketErrorsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the realtime client.
func RegisterMetrics() {
	registerOnce.Do(func() {
		chatMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "client_chat_messages_sent_total",
			Help: "Total number of chat messages acknowledged by the server.",
		})

		chatMessagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "client_chat_messages_received_total",
			Help: "Total number of chat messages merged from realtime pushes.",
		})

		notificationsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_notifications_received_total",
			Help: "Total number of notifications received, by category.",
		}, []string{"category"})

		socketDialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_socket_dials_total",
			Help: "Total number of websocket connections established, by slot.",
		}, []string{"slot"})

		socketErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_socket_errors_total",
			Help: "Total number of websocket dial or read failures, by slot.",
		}, []string{"slot"})

		prometheus.MustRegister(chatMessagesSent, chatMessagesReceived, notificationsReceived, socketDialsTotal, socketErrorsTotal)
	})
}

// ChatMessagesSent exposes the counter for acknowledged outbound messages.
func ChatMessagesSent() prometheus.Counter {
	RegisterMetrics()
	return chatMessagesSent
}

// ChatMessagesReceived exposes the counter for inbound realtime messages.
func ChatMessagesReceived() prometheus.Counter {
	RegisterMetrics()
	return chatMessagesReceived
}

// NotificationsReceived exposes the per-category notification counter.
func NotificationsReceived() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsReceived
}

// SocketDials exposes the per-slot dial counter.
func SocketDials() *prometheus.CounterVec {
	RegisterMetrics()
	return socketDialsTotal
}

// SocketErrors exposes the per-slot socket failure counter.
func SocketErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return socketErrorsTotal
}
