package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sabacc"

var (
	// действия игроков по виду и исходу (ok / rejected / error)
	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Player actions by kind and outcome.",
	}, []string{"action", "outcome"})

	HandsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hands_resolved_total",
		Help:      "Hands scored.",
	})

	Eliminations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eliminations_total",
		Help:      "Players eliminated.",
	})

	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_started_total",
		Help:      "Games moved from pending to active.",
	})

	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_completed_total",
		Help:      "Games finished with a winner.",
	})

	HandsPerGame = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "hands_per_game",
		Help:      "Number of hands played before a game completed.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
	})

	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_duration_seconds",
		Help:      "Session store call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})

	SpectatorClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "spectator_clients",
		Help:      "Connected websocket spectators.",
	})
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ObserveStore пишет длительность вызова хранилища
func ObserveStore(backend, op string, started time.Time) {
	StoreLatency.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
}
