package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	sessionCreatedCounter    prometheus.Counter
	moveAppliedCounter       prometheus.Counter
	moveRejectedCounter      prometheus.Counter
	rewardIssuedCounter      prometheus.Counter
	activeSessionsMapGauge   prometheus.Gauge
	stakeVerifyFailedCounter prometheus.Counter
}

func (m *metrics) SessionCreated() {
	m.sessionCreatedCounter.Inc()
}

func (m *metrics) MoveApplied() {
	m.moveAppliedCounter.Inc()
}

func (m *metrics) MoveRejected() {
	m.moveRejectedCounter.Inc()
}

func (m *metrics) RewardIssued() {
	m.rewardIssuedCounter.Inc()
}

func (m *metrics) StakeVerifyFailed() {
	m.stakeVerifyFailedCounter.Inc()
}

func (m *metrics) SetActiveSessionsMapCount(count int) {
	m.activeSessionsMapGauge.Set(float64(count))
}

var Metrics = &metrics{
	sessionCreatedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Total number of game sessions created",
	}),
	moveAppliedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "moves_applied_total",
		Help: "Total number of accepted moves",
	}),
	moveRejectedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "moves_rejected_total",
		Help: "Total number of rejected moves",
	}),
	rewardIssuedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewards_issued_total",
		Help: "Total number of reward records created",
	}),
	stakeVerifyFailedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "stake_verify_failed_total",
		Help: "Total number of failed stake verifications",
	}),
	activeSessionsMapGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions_map_entries_count",
		Help: "Count of the entries in the manager activeSessions map",
	}),
}
