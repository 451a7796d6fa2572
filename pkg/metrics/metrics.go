// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics interface {
	GroupsInQueue(gameType string, numPlayers int, numGroups int)
	AddSearchElapsedTimeMs(gameType, function string, elapsedTime time.Duration)
	AddMatchFormed(gameType string, strategy string)
	AddUnmatchedReason(gameType string, reason string)
	AddPenaltyIssued(gameType string)
	AddRatingDelta(gameType string, delta float64)
}

func NewMetrics(registry *prometheus.Registry) EngineMetrics {
	return setupPrometheusMetrics(registry)
}
