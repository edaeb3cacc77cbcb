// Package metrics provides Prometheus metrics for Vigor: counters and
// histograms for event processing, reversals, XP, and achievements.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Events ─────────────────────────────────────────────────────────────────

// EventsProcessed tracks successfully processed events by source.
var EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "events_processed_total",
	Help:      "Total successfully processed action events.",
}, []string{"source"})

// EventsFailed tracks failed events by source and reason.
var EventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "events_failed_total",
	Help:      "Total failed action events.",
}, []string{"source", "reason"})

// EventsDuplicate tracks duplicate-token submissions answered from cache.
var EventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "events_duplicate_total",
	Help:      "Total duplicate-token submissions answered with the cached result.",
})

// EventsReversed tracks reversed events by source of the original.
var EventsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "events_reversed_total",
	Help:      "Total reversed action events.",
}, []string{"source"})

// ProcessLatency tracks event processing duration in seconds.
var ProcessLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "vigor",
	Name:      "event_process_latency_seconds",
	Help:      "Action event processing duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// ─── Rewards ────────────────────────────────────────────────────────────────

// XPAwarded tracks total XP granted (reversals do not subtract here).
var XPAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded across all users.",
})

// LevelUps tracks level-up occurrences.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "level_ups_total",
	Help:      "Total level-up occurrences.",
})

// AchievementsUnlocked tracks unlocks by category.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vigor",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"category"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "vigor",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
