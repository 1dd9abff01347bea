package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every truckhub collector and is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MessagesReceived counts inbound telemetry messages by class.
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_messages_received_total",
			Help: "Total number of telemetry messages received from the broker.",
		},
		[]string{"class"},
	)

	// MessagesDropped counts messages that never reached the store.
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_messages_dropped_total",
			Help: "Total number of telemetry messages dropped before storage.",
		},
		[]string{"class", "reason"}, // reason: validation/unknown_device/bad_topic/overflow
	)

	// GeolocationLookups counts cell-tower lookups by outcome.
	GeolocationLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_geolocation_lookups_total",
			Help: "Total number of cell-tower geolocation lookups.",
		},
		[]string{"result"}, // result: ok/failed/invalid_cell/disabled
	)

	// GeolocationLatency records the round-trip time of the lookup service.
	GeolocationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "truckhub_geolocation_latency_seconds",
			Help:    "Latency of cell-tower geolocation lookups.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MQTTConnectionState is 1 when the broker session is up.
	MQTTConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "truckhub_mqtt_connection_state",
			Help: "The broker connection state (1=Connected, 0=Disconnected or Connecting).",
		},
	)

	// CommandsSent counts published device commands.
	CommandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truckhub_commands_sent_total",
			Help: "Total number of commands published to trucks.",
		},
		[]string{"kind", "status"}, // status: success/failed/rejected
	)

	// RegisteredDevices tracks the size of the device store.
	RegisteredDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "truckhub_registered_devices",
			Help: "Number of registered trucks.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesReceived,
		MessagesDropped,
		GeolocationLookups,
		GeolocationLatency,
		MQTTConnectionState,
		CommandsSent,
		RegisteredDevices,
	)
}
