// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/models"
)

// FIFO fills teams strictly in arrival order and commits to the first
// structurally valid split. Quality gating and ranking are intentionally
// inert; wait fairness is the only criterion.
type FIFO struct {
	base

	ruleset      models.Ruleset
	ratingCfg    models.RatingConfig
	accounts     matchmaker.AccountStore
	maxIteration int
	pool         *models.Pool
}

// NewFIFO builds the arrival-order strategy for a ruleset.
func NewFIFO(ruleset models.Ruleset, ratingCfg models.RatingConfig, accounts matchmaker.AccountStore, maxIteration int) *FIFO {
	f := &FIFO{
		ruleset:      ruleset,
		ratingCfg:    ratingCfg,
		accounts:     accounts,
		maxIteration: maxIteration,
		pool:         models.NewPool(),
	}
	f.base = base{hooks: f}
	return f
}

// FindMatches returns at most one match: the first exactly-full split found
// while considering groups oldest first.
func (f *FIFO) FindMatches(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match {
	if len(groups) == 0 {
		return nil
	}

	ruleset := f.ruleset
	if flexed, applied := ruleset.ApplyFlexingRule(oldestQueueTime(groups), now); applied {
		scope.Log.WithField("teamACapacity", flexed.TeamACapacity).
			WithField("teamBCapacity", flexed.TeamBCapacity).
			Info("flexing rule active, team capacities adjusted")
		ruleset = flexed
	}

	ordered := byQueueTime(groups)
	splits := enumerateTeamSplits(ordered, ruleset.TeamACapacity, ruleset.TeamBCapacity, true, f.maxIteration, f.pool)
	if len(splits) == 0 {
		return nil
	}

	accounts := resolveAccounts(scope, splits[0].teamA, f.accounts)
	for id, account := range resolveAccounts(scope, splits[0].teamB, f.accounts) {
		accounts[id] = account
	}

	return []models.Match{{
		TeamA: models.NewTeam(splits[0].teamA, accounts, ruleset.RatingKey, f.ratingCfg.BaselineRating),
		TeamB: models.NewTeam(splits[0].teamB, accounts, ruleset.RatingKey, f.ratingCfg.BaselineRating),
	}}
}

// FilterMatch accepts everything; arrival order already decided.
func (f *FIFO) FilterMatch(models.Match, time.Time) bool { return true }

// RankMatch is constant; at most one candidate reaches it.
func (f *FIFO) RankMatch(models.Match, time.Time) float64 { return 0 }

// IgnoreFilterWhenStalled is moot since nothing is filtered.
func (f *FIFO) IgnoreFilterWhenStalled([]models.MatchmakingGroup, time.Time) bool { return false }
