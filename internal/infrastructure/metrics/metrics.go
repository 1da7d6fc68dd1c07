package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the queue server.
type Metrics struct {
	QueueMutations   *prometheus.CounterVec
	QueueRejections  *prometheus.CounterVec
	Broadcasts       prometheus.Counter
	ConnectedClients prometheus.Gauge
}

// New registers the instruments on reg. Pass a fresh registry in tests to
// avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueueMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crooner",
			Name:      "queue_mutations_total",
			Help:      "Successful queue mutations by kind.",
		}, []string{"kind"}),
		QueueRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crooner",
			Name:      "queue_rejections_total",
			Help:      "Rejected queue commands by kind.",
		}, []string{"kind"}),
		Broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crooner",
			Name:      "queue_broadcasts_total",
			Help:      "Canonical queue snapshots broadcast to rooms.",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crooner",
			Name:      "connected_clients",
			Help:      "Websocket clients currently joined to a room.",
		}),
	}
}
