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

// Single launches one group at a time against the environment. The earliest
// queued group that fits team A's capacity goes out alone; team B stays
// empty.
type Single struct {
	base

	ruleset   models.Ruleset
	ratingCfg models.RatingConfig
	accounts  matchmaker.AccountStore
}

// NewSingle builds the single-group strategy for a ruleset.
func NewSingle(ruleset models.Ruleset, ratingCfg models.RatingConfig, accounts matchmaker.AccountStore) *Single {
	s := &Single{
		ruleset:   ruleset,
		ratingCfg: ratingCfg,
		accounts:  accounts,
	}
	s.base = base{hooks: s}
	return s
}

// FindMatches returns at most one match built from the oldest group whose
// size fits team A's capacity. Oversized groups stay queued; they can only
// go out once a flexing rule raises the capacity.
func (s *Single) FindMatches(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match {
	if len(groups) == 0 {
		return nil
	}

	ruleset := s.ruleset
	if flexed, applied := ruleset.ApplyFlexingRule(oldestQueueTime(groups), now); applied {
		scope.Log.WithField("teamACapacity", flexed.TeamACapacity).
			Info("flexing rule active, team capacity adjusted")
		ruleset = flexed
	}

	for _, group := range byQueueTime(groups) {
		if group.Size() > ruleset.TeamACapacity {
			scope.Log.WithField("groupID", group.GroupID).
				WithField("size", group.Size()).
				Warn("group exceeds team capacity, leaving it queued")
			continue
		}

		teamGroups := []models.MatchmakingGroup{group}
		accounts := resolveAccounts(scope, teamGroups, s.accounts)
		return []models.Match{{
			TeamA: models.NewTeam(teamGroups, accounts, ruleset.RatingKey, s.ratingCfg.BaselineRating),
		}}
	}

	return nil
}

// FilterMatch accepts everything; there is no opposing team to balance.
func (s *Single) FilterMatch(models.Match, time.Time) bool { return true }

// RankMatch is constant; at most one candidate reaches it.
func (s *Single) RankMatch(models.Match, time.Time) float64 { return 0 }

// IgnoreFilterWhenStalled is moot since nothing is filtered.
func (s *Single) IgnoreFilterWhenStalled([]models.MatchmakingGroup, time.Time) bool { return false }
