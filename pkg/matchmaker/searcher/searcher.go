// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package searcher implements the match search strategies: exhaustive ranked
// search with filtering, strict arrival-order pairing and single-group
// assembly. All three share the find/filter/rank contract of
// matchmaker.MatchSearch and are selected at queue construction time.
package searcher

import (
	"sort"
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/models"

	pie "github.com/elliotchance/pie/v2"
)

// New returns the search strategy configured for the ruleset. The strategy
// set is closed; unknown strategies fall back to ranked.
func New(ruleset models.Ruleset, ratingCfg models.RatingConfig, accounts matchmaker.AccountStore, maxIteration int) matchmaker.MatchSearch {
	switch ruleset.Strategy {
	case models.StrategyFIFO:
		return NewFIFO(ruleset, ratingCfg, accounts, maxIteration)
	case models.StrategySingle:
		return NewSingle(ruleset, ratingCfg, accounts)
	default:
		return NewRanked(ruleset, ratingCfg, accounts, maxIteration)
	}
}

// strategyHooks is the strategy-specific part of the search pipeline.
type strategyHooks interface {
	FindMatches(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match
	FilterMatch(match models.Match, now time.Time) bool
	RankMatch(match models.Match, now time.Time) float64
	IgnoreFilterWhenStalled(groups []models.MatchmakingGroup, now time.Time) bool
}

// base drives the find -> filter -> rank pipeline shared by strategies that
// rank candidates.
type base struct {
	hooks strategyHooks
}

func (b base) GetMatchesRanked(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match {
	candidates := b.hooks.FindMatches(scope, groups, now)
	if len(candidates) == 0 {
		return nil
	}

	survivors := pie.Filter(candidates, func(m models.Match) bool {
		return b.hooks.FilterMatch(m, now)
	})
	if len(survivors) == 0 {
		// Escape valve: rather than stall the queue indefinitely, a strategy
		// may accept structurally valid candidates that failed filtering.
		if !b.hooks.IgnoreFilterWhenStalled(groups, now) {
			return nil
		}
		scope.Log.WithField("candidates", len(candidates)).
			Warn("queue stalled, ignoring match filtering this pass")
		survivors = candidates
	}

	type scored struct {
		match models.Match
		score float64
	}
	ranked := pie.Map(survivors, func(m models.Match) scored {
		return scored{match: m, score: b.hooks.RankMatch(m, now)}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	return pie.Map(ranked, func(s scored) models.Match { return s.match })
}

// resolveAccounts snapshots the accounts behind a pass's groups. A failed
// lookup degrades that player to the baseline rating instead of failing the
// pass.
func resolveAccounts(scope *envelope.Scope, groups []models.MatchmakingGroup, store matchmaker.AccountStore) map[models.AccountID]*models.Account {
	accounts := make(map[models.AccountID]*models.Account)
	if store == nil {
		return accounts
	}
	for _, group := range groups {
		for _, id := range group.Members {
			if _, ok := accounts[id]; ok {
				continue
			}
			account, err := store.GetAccount(scope, id)
			if err != nil {
				scope.Log.WithField("accountID", id).WithError(err).
					Warn("account lookup failed, scoring at baseline")
				continue
			}
			accounts[id] = account
		}
	}
	return accounts
}

// byQueueTime orders groups oldest first, ties broken by group id so
// repeated passes see a stable order.
func byQueueTime(groups []models.MatchmakingGroup) []models.MatchmakingGroup {
	return pie.SortUsing(groups, func(a, b models.MatchmakingGroup) bool {
		if a.QueueTime.Equal(b.QueueTime) {
			return a.GroupID < b.GroupID
		}
		return a.QueueTime.Before(b.QueueTime)
	})
}

// oldestQueueTime returns the earliest enqueue timestamp among groups.
func oldestQueueTime(groups []models.MatchmakingGroup) time.Time {
	pivot := groups[0].QueueTime
	for _, group := range groups[1:] {
		if group.QueueTime.Before(pivot) {
			pivot = group.QueueTime
		}
	}
	return pivot
}
