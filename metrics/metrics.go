// Package metrics – Prometheus metrics for observability.
//
// Primary metrics updated during operation:
//   • desk_ticks_total                 – Price-tick cycles completed
//   • desk_trades_total{side}          – Trades executed (buy|sell)
//   • desk_rejects_total{reason}       – Orders rejected, split by reason
//   • desk_deposits_total              – Deposits applied
//   • desk_broadcasts_total{scope}     – Fan-out publishes (global|account)
//   • desk_sessions                    – Live sessions (gauge)
//
// Registered in init() and served by the HTTP handler at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mtxTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "desk_ticks_total",
			Help: "Price-tick cycles completed",
		},
	)

	mtxTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desk_trades_total",
			Help: "Trades executed",
		},
		[]string{"side"},
	)

	mtxRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desk_rejects_total",
			Help: "Orders rejected by reason",
		},
		[]string{"reason"},
	)

	mtxDeposits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "desk_deposits_total",
			Help: "Deposits applied",
		},
	)

	mtxBroadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desk_broadcasts_total",
			Help: "Fan-out publishes by scope",
		},
		[]string{"scope"},
	)

	mtxSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "desk_sessions",
			Help: "Live sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxTicks,
		mtxTrades,
		mtxRejects,
		mtxDeposits,
		mtxBroadcasts,
		mtxSessions,
	)
}

func Tick()                { mtxTicks.Inc() }
func Trade(side string)    { mtxTrades.WithLabelValues(side).Inc() }
func Reject(reason string) { mtxRejects.WithLabelValues(reason).Inc() }
func Deposit()             { mtxDeposits.Inc() }
func Broadcast(scope string) {
	mtxBroadcasts.WithLabelValues(scope).Inc()
}
func SessionOpened() { mtxSessions.Inc() }
func SessionClosed() { mtxSessions.Dec() }

// Handler serves the Prometheus text exposition format.
func Handler() http.Handler { return promhttp.Handler() }
