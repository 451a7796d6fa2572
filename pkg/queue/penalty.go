// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/metrics"
	"github.com/questline/core-matchmaker/pkg/models"
)

// PenaltyManager issues and tracks queue penalties for abandoned matches.
// Penalties and abandon strikes live in an expiring in-memory cache so the
// manager needs no timers; expiry is a wall-clock comparison on read and the
// cache janitor reclaims stale entries.
type PenaltyManager struct {
	cache *gocache.Cache

	baseDuration time.Duration
	maxDuration  time.Duration
	strikeMemory time.Duration
	metrics      metrics.EngineMetrics
}

// NewPenaltyManager builds a penalty manager. Each further abandon within the
// strike-memory window doubles the penalty, capped at maxDuration.
func NewPenaltyManager(baseDuration, maxDuration, strikeMemory time.Duration, engineMetrics metrics.EngineMetrics) *PenaltyManager {
	return &PenaltyManager{
		cache:        gocache.New(gocache.NoExpiration, time.Minute),
		baseDuration: baseDuration,
		maxDuration:  maxDuration,
		strikeMemory: strikeMemory,
		metrics:      engineMetrics,
	}
}

// IssuePenalty blocks the account from the game type's queue for the
// escalated duration and remembers the strike.
func (m *PenaltyManager) IssuePenalty(scope *envelope.Scope, gameType models.GameType, accountID models.AccountID, matchID string, now time.Time) models.QueuePenalty {
	strikes := m.strikes(gameType, accountID)

	duration := m.baseDuration << strikes
	if duration > m.maxDuration || duration <= 0 {
		duration = m.maxDuration
	}

	penalty := models.QueuePenalty{
		GameType:   gameType,
		AccountID:  accountID,
		MatchID:    matchID,
		BlockUntil: now.Add(duration),
	}
	ttl := duration + m.strikeMemory
	m.cache.Set(penaltyKey(gameType, accountID), penalty, ttl)
	m.cache.Set(strikeKey(gameType, accountID), strikes+1, ttl)

	scope.Log.WithField("accountID", accountID).
		WithField("gameType", gameType).
		WithField("strikes", strikes+1).
		WithField("blockUntil", penalty.BlockUntil).
		Info("queue penalty issued")
	if m.metrics != nil {
		m.metrics.AddPenaltyIssued(string(gameType))
	}

	return penalty
}

// ActivePenalty returns the account's penalty for the game type when one is
// still blocking as of now.
func (m *PenaltyManager) ActivePenalty(gameType models.GameType, accountID models.AccountID, now time.Time) (models.QueuePenalty, bool) {
	value, found := m.cache.Get(penaltyKey(gameType, accountID))
	if !found {
		return models.QueuePenalty{}, false
	}
	penalty := value.(models.QueuePenalty)
	if penalty.Expired(now) {
		return models.QueuePenalty{}, false
	}
	return penalty, true
}

// Pardon lifts an active penalty early. Strikes are kept so a repeat abandon
// still escalates.
func (m *PenaltyManager) Pardon(scope *envelope.Scope, gameType models.GameType, accountID models.AccountID) {
	m.cache.Delete(penaltyKey(gameType, accountID))
	scope.Log.WithField("accountID", accountID).
		WithField("gameType", gameType).
		Info("queue penalty pardoned")
}

func (m *PenaltyManager) strikes(gameType models.GameType, accountID models.AccountID) int {
	value, found := m.cache.Get(strikeKey(gameType, accountID))
	if !found {
		return 0
	}
	return value.(int)
}

func penaltyKey(gameType models.GameType, accountID models.AccountID) string {
	return fmt.Sprintf("penalty:%s:%s", gameType, accountID)
}

func strikeKey(gameType models.GameType, accountID models.AccountID) string {
	return fmt.Sprintf("strike:%s:%s", gameType, accountID)
}
