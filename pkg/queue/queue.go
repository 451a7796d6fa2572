// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package queue owns the live queued-group state: one GameQueue per game
// type, the QueueService driving periodic update passes over them, and the
// PenaltyManager gating re-admission after an abandoned match.
package queue

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/metrics"
	"github.com/questline/core-matchmaker/pkg/models"
)

// Now is overridable for tests.
var Now = time.Now

// GameQueue is the matchmaking queue for one game type. All operations on
// the queued-group set are mutually exclusive under one mutex; only the
// launch of a found match runs outside it.
type GameQueue struct {
	mu     sync.Mutex
	queued map[models.GroupID]models.MatchmakingGroup

	ruleset        models.Ruleset
	search         matchmaker.MatchSearch
	registry       matchmaker.GroupRegistry
	servers        matchmaker.GameServerProvider
	metrics        metrics.EngineMetrics
	reserveTimeout time.Duration
	launchTimeout  time.Duration
}

// NewGameQueue builds the queue for one game type's ruleset.
func NewGameQueue(
	ruleset models.Ruleset,
	search matchmaker.MatchSearch,
	registry matchmaker.GroupRegistry,
	servers matchmaker.GameServerProvider,
	engineMetrics metrics.EngineMetrics,
	reserveTimeout time.Duration,
	launchTimeout time.Duration,
) *GameQueue {
	return &GameQueue{
		queued:         make(map[models.GroupID]models.MatchmakingGroup),
		ruleset:        ruleset,
		search:         search,
		registry:       registry,
		servers:        servers,
		metrics:        engineMetrics,
		reserveTimeout: reserveTimeout,
		launchTimeout:  launchTimeout,
	}
}

// GameType returns the game type this queue serves.
func (q *GameQueue) GameType() models.GameType {
	return q.ruleset.GameType
}

// Add snapshots the registry group into the queue.
func (q *GameQueue) Add(scope *envelope.Scope, group models.RegistryGroup, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.queued[group.GroupID]; exists {
		return models.ErrGroupAlreadyQueued
	}
	q.queued[group.GroupID] = models.NewMatchmakingGroup(group, now)

	scope.Log.WithField("groupID", group.GroupID).
		WithField("gameType", q.ruleset.GameType).
		WithField("size", len(group.Members)).
		Info("group queued")
	return nil
}

// Remove takes the group out of the queue, reporting whether it was present.
func (q *GameQueue) Remove(scope *envelope.Scope, groupID models.GroupID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(scope, groupID)
}

func (q *GameQueue) removeLocked(scope *envelope.Scope, groupID models.GroupID) bool {
	if _, exists := q.queued[groupID]; !exists {
		// Benign race: another pass or an explicit dequeue got there first.
		scope.Log.WithField("groupID", groupID).
			WithField("gameType", q.ruleset.GameType).
			Warn("group already removed from queue")
		return false
	}
	delete(q.queued, groupID)
	return true
}

// Contains reports whether the group is currently queued.
func (q *GameQueue) Contains(groupID models.GroupID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, exists := q.queued[groupID]
	return exists
}

// Len returns the number of queued groups.
func (q *GameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queued)
}

// Update runs one matchmaking pass: snapshot the queued groups, search for
// the best match, reserve a server and consume the matched groups, then
// launch asynchronously. Safe to call repeatedly; passes on the same queue
// never overlap. The queue lock is never held while waiting on the launch.
func (q *GameQueue) Update(scope *envelope.Scope) {
	match, server, matchID, ok := q.findAndConsume(scope)
	if !ok {
		return
	}

	launchScope := scope.NewChildScope("GameQueue.Launch")
	go func() {
		defer launchScope.Finish()
		q.launch(launchScope, server, matchID, match)
	}()
}

// findAndConsume is the locked part of a pass. On success the matched groups
// have been removed from the queue and a server is reserved; the caller owns
// the launch. When no server is available the match is discarded and the
// groups stay queued for the next pass.
func (q *GameQueue) findAndConsume(scope *envelope.Scope) (models.Match, matchmaker.GameServer, string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := Now()
	groups := q.snapshotLocked(scope)
	if q.metrics != nil {
		numPlayers := 0
		for _, group := range groups {
			numPlayers += group.Size()
		}
		q.metrics.GroupsInQueue(string(q.ruleset.GameType), numPlayers, len(groups))
	}
	if len(groups) == 0 {
		return models.Match{}, nil, "", false
	}

	searchStart := time.Now()
	matches := q.search.GetMatchesRanked(scope, groups, now)
	if q.metrics != nil {
		q.metrics.AddSearchElapsedTimeMs(string(q.ruleset.GameType), "GetMatchesRanked", time.Since(searchStart))
	}
	if len(matches) == 0 {
		// Not an error: no feasible match this pass, retry on the next one.
		if q.metrics != nil {
			q.metrics.AddUnmatchedReason(string(q.ruleset.GameType), "no_feasible_match")
		}
		return models.Match{}, nil, "", false
	}
	match := matches[0]

	// Reserve is a quick availability check, but a misbehaving provider must
	// not hold the queue lock indefinitely.
	reserveScope := scope.NewChildScope("GameQueue.Reserve")
	defer reserveScope.Finish()
	if q.reserveTimeout > 0 {
		ctx, cancel := context.WithTimeout(reserveScope.Ctx, q.reserveTimeout)
		defer cancel()
		reserveScope.Ctx = ctx
	}
	server, err := q.servers.Reserve(reserveScope, q.ruleset.GameType)
	if err != nil {
		scope.Log.WithField("gameType", q.ruleset.GameType).WithError(err).
			Warn("no server for found match, keeping groups queued")
		if q.metrics != nil {
			q.metrics.AddUnmatchedReason(string(q.ruleset.GameType), "no_server_available")
		}
		return models.Match{}, nil, "", false
	}

	for _, groupID := range match.GroupIDs() {
		q.removeLocked(scope, groupID)
	}

	matchID := strings.ToLower(ulid.Make().String())
	scope.SetAttributes(envelope.GameTypeTag, string(q.ruleset.GameType))
	scope.SetAttributes(envelope.MatchIDTag, matchID)
	scope.Log.WithField("matchID", matchID).
		WithField("gameType", q.ruleset.GameType).
		WithField("groupIDs", match.GroupIDs()).
		Info("match formed")
	if q.metrics != nil {
		q.metrics.AddMatchFormed(string(q.ruleset.GameType), string(q.ruleset.Strategy))
	}

	return match, server, matchID, true
}

// snapshotLocked rebuilds the pass's group snapshots from the registry.
// A group the registry no longer knows is dropped without failing the pass;
// membership is re-read so a roster change between admission and this pass
// is reflected, while the original queue time is kept.
func (q *GameQueue) snapshotLocked(scope *envelope.Scope) []models.MatchmakingGroup {
	groups := make([]models.MatchmakingGroup, 0, len(q.queued))
	for groupID, queuedGroup := range q.queued {
		registryGroup, err := q.registry.GetGroup(scope, groupID)
		if err != nil || registryGroup == nil || len(registryGroup.Members) == 0 {
			if err != nil {
				scope.Log.WithField("groupID", groupID).WithError(err).
					Warn("group registry lookup failed, skipping group this pass")
				continue
			}
			delete(q.queued, groupID)
			continue
		}
		groups = append(groups, models.NewMatchmakingGroup(*registryGroup, queuedGroup.QueueTime))
	}
	return groups
}

// launch hands the match to the reserved server, bounded by the launch
// timeout. On failure the server is released and the groups are re-queued
// with their original queue times so their earned wait priority survives.
func (q *GameQueue) launch(scope *envelope.Scope, server matchmaker.GameServer, matchID string, match models.Match) {
	ctx, cancel := context.WithTimeout(scope.Ctx, q.launchTimeout)
	defer cancel()
	scope.Ctx = ctx

	if err := q.servers.Launch(scope, server, matchID, match); err != nil {
		scope.Log.WithField("matchID", matchID).WithError(err).
			Error("match launch failed, requeueing groups")
		server.Release(scope)
		q.requeue(scope, match.Groups())
		return
	}

	scope.Log.WithField("matchID", matchID).
		WithField("server", server.ID()).
		Info("match launched")
}

// requeue puts consumed groups back after a failed launch.
func (q *GameQueue) requeue(scope *envelope.Scope, groups []models.MatchmakingGroup) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, group := range groups {
		if _, exists := q.queued[group.GroupID]; exists {
			scope.Log.WithField("groupID", group.GroupID).
				Warn("group re-queued elsewhere while its match was launching")
			continue
		}
		q.queued[group.GroupID] = group
	}
}
