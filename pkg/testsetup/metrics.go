package testsetup

import (
	"time"

	"github.com/questline/core-matchmaker/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) GroupsInQueue(gameType string, numPlayers int, numGroups int) {
}

func (s stubMetricsCollection) AddSearchElapsedTimeMs(gameType, function string, elapsedTime time.Duration) {
}

func (s stubMetricsCollection) AddMatchFormed(gameType string, strategy string) {
}

func (s stubMetricsCollection) AddUnmatchedReason(gameType string, reason string) {
}

func (s stubMetricsCollection) AddPenaltyIssued(gameType string) {
}

func (s stubMetricsCollection) AddRatingDelta(gameType string, delta float64) {
}

func NewMetrics() metrics.EngineMetrics {
	return stubMetricsCollection{}
}
