// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker defines the contracts between the matchmaking engine
// and its external collaborators: the group registry, the account store,
// the match-history store and the game-server provider.
package matchmaker

import (
	"errors"
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/models"
)

// ErrNoServerAvailable is returned by a GameServerProvider when no backing
// game server can host a found match. The queue must not consume the
// selected groups in that case.
var ErrNoServerAvailable = errors.New("no game server available")

/*
MatchSearch is a thing that takes queued group snapshots and makes Matches.
Every strategy implements the same three-step contract: FindMatches produces
structurally valid candidates, FilterMatches applies the strategy's
acceptance predicate, RankMatches orders survivors best first. The engine
commits to the single top-ranked Match only.

GetMatchesRanked never raises user-facing errors; an empty result means no
feasible match this pass and the caller retries on the next periodic pass.
*/
type MatchSearch interface {
	// GetMatchesRanked returns candidate matches best first, empty when no
	// feasible match exists among the queued groups at time now.
	GetMatchesRanked(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match
}

// GroupRegistry maps a group id to its ordered member list and leader.
// The engine only reads membership; a nil group with no error means the
// registry no longer knows the id and the search must silently skip it.
type GroupRegistry interface {
	GetGroup(scope *envelope.Scope, groupID models.GroupID) (*models.RegistryGroup, error)
}

// AccountStore exposes persisted account snapshots and accepts rating-state
// writes. Read-modify-write cycles against it are serialized by the rating
// engine's critical section, not by the store.
type AccountStore interface {
	GetAccount(scope *envelope.Scope, id models.AccountID) (*models.Account, error)
	UpdateRatingComponent(scope *envelope.Scope, account *models.Account, key models.RatingKey) error
}

// MatchHistory exposes a player's past match summaries, most recent first.
type MatchHistory interface {
	FindRecentMatches(scope *envelope.Scope, id models.AccountID, gameType models.GameType) ([]models.MatchSummary, error)
}

// GameServer is a reserved backing resource able to host one match.
type GameServer interface {
	ID() string
	Release(scope *envelope.Scope)
}

// GameServerProvider reserves and launches game servers. Reserve is a quick
// synchronous availability check; Launch may wait for the load-out phase and
// must never be called while holding a queue lock.
type GameServerProvider interface {
	Reserve(scope *envelope.Scope, gameType models.GameType) (GameServer, error)
	Launch(scope *envelope.Scope, server GameServer, matchID string, match models.Match) error
}

// ActiveMatches reports whether a started match is still in progress,
// consulted to pardon queue penalties early.
type ActiveMatches interface {
	IsMatchActive(scope *envelope.Scope, matchID string) bool
}
