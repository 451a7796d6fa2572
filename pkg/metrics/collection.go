// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	groupsInQueue     prometheus.GaugeVec
	searchElapsedTime prometheus.HistogramVec
	matchesFormed     prometheus.CounterVec
	unmatchedReasons  prometheus.CounterVec
	penaltiesIssued   prometheus.CounterVec
	ratingDeltas      prometheus.HistogramVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	groupsInQueue := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ql_mm_groups_in_queue",
			Help: "A gauge of groups with num players waiting per game type queue",
		}, []string{"game_type", "numPlayers"})

	//nolint:promlinter
	searchElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ql_mm_search_elapsed_time_ms",
			Help:    "A histogram of match search functions elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"game_type", "function"})

	matchesFormed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ql_mm_matches_formed",
			Help: "A counter of matches formed per game type and strategy",
		}, []string{"game_type", "strategy"})

	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ql_mm_unmatched_reasons",
			Help: "A counter for reasons a queue pass formed no match",
		}, []string{"game_type", "reason"})

	penaltiesIssued := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ql_mm_penalties_issued",
			Help: "A counter of queue penalties issued per game type",
		}, []string{"game_type"})

	//nolint:promlinter
	ratingDeltas := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ql_mm_rating_delta",
			Help:    "A histogram of absolute per-player rating movements",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"game_type"})

	return prometheusMetrics{
		groupsInQueue:     *groupsInQueue,
		searchElapsedTime: *searchElapsedTime,
		matchesFormed:     *matchesFormed,
		unmatchedReasons:  *unmatchedReasons,
		penaltiesIssued:   *penaltiesIssued,
		ratingDeltas:      *ratingDeltas,
	}
}

func (metrics prometheusMetrics) GroupsInQueue(gameType string, numPlayers int, numGroups int) {
	metrics.groupsInQueue.With(prometheus.Labels{"game_type": gameType, "numPlayers": strconv.Itoa(numPlayers)}).Set(float64(numGroups))
}

func (metrics prometheusMetrics) AddSearchElapsedTimeMs(gameType, function string, elapsedTime time.Duration) {
	metrics.searchElapsedTime.With(prometheus.Labels{"game_type": gameType, "function": function}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddMatchFormed(gameType string, strategy string) {
	metrics.matchesFormed.With(prometheus.Labels{"game_type": gameType, "strategy": strategy}).Add(float64(1))
}

func (metrics prometheusMetrics) AddUnmatchedReason(gameType string, reason string) {
	metrics.unmatchedReasons.With(prometheus.Labels{"game_type": gameType, "reason": reason}).Add(float64(1))
}

func (metrics prometheusMetrics) AddPenaltyIssued(gameType string) {
	metrics.penaltiesIssued.With(prometheus.Labels{"game_type": gameType}).Add(float64(1))
}

func (metrics prometheusMetrics) AddRatingDelta(gameType string, delta float64) {
	if delta < 0 {
		delta = -delta
	}
	metrics.ratingDeltas.With(prometheus.Labels{"game_type": gameType}).Observe(delta)
}
