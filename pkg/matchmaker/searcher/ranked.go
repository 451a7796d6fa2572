// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"math"
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/mathutil"
	"github.com/questline/core-matchmaker/pkg/models"
)

// StallPolicy decides whether a pass whose candidates all failed filtering
// may fall back to the unfiltered candidates. It is a separate policy so the
// escape valve can be tuned or disabled independently of the ruleset.
type StallPolicy func(groups []models.MatchmakingGroup, now time.Time) bool

// StallAfter builds a StallPolicy that trips once the oldest queued group has
// waited at least age. A non-positive age disables the valve.
func StallAfter(age time.Duration) StallPolicy {
	return func(groups []models.MatchmakingGroup, now time.Time) bool {
		if age <= 0 || len(groups) == 0 {
			return false
		}
		return now.Sub(oldestQueueTime(groups)) >= age
	}
}

// Ranked is the exhaustive ranked search: every feasible team split is
// enumerated, gated by the wait-widened rating gap, and scored by the
// weighted quality heuristic.
type Ranked struct {
	base

	ruleset      models.Ruleset
	ratingCfg    models.RatingConfig
	accounts     matchmaker.AccountStore
	maxIteration int
	stallPolicy  StallPolicy
	pool         *models.Pool
}

// NewRanked builds the ranked strategy for a ruleset.
func NewRanked(ruleset models.Ruleset, ratingCfg models.RatingConfig, accounts matchmaker.AccountStore, maxIteration int) *Ranked {
	r := &Ranked{
		ruleset:      ruleset,
		ratingCfg:    ratingCfg,
		accounts:     accounts,
		maxIteration: maxIteration,
		stallPolicy:  StallAfter(time.Duration(ruleset.StallSecond) * time.Second),
		pool:         models.NewPool(),
	}
	r.base = base{hooks: r}
	return r
}

// SetStallPolicy overrides the escape-valve policy.
func (r *Ranked) SetStallPolicy(policy StallPolicy) {
	r.stallPolicy = policy
}

// FindMatches enumerates every feasible split of the queued groups into two
// exactly-full teams, after applying the flexing rule pivoted on the oldest
// group's queue time.
func (r *Ranked) FindMatches(scope *envelope.Scope, groups []models.MatchmakingGroup, now time.Time) []models.Match {
	if len(groups) == 0 {
		return nil
	}

	ruleset := r.ruleset
	if flexed, applied := ruleset.ApplyFlexingRule(oldestQueueTime(groups), now); applied {
		scope.Log.WithField("teamACapacity", flexed.TeamACapacity).
			WithField("teamBCapacity", flexed.TeamBCapacity).
			Info("flexing rule active, team capacities adjusted")
		ruleset = flexed
	}

	ordered := byQueueTime(groups)
	splits := enumerateTeamSplits(ordered, ruleset.TeamACapacity, ruleset.TeamBCapacity, false, r.maxIteration, r.pool)
	if len(splits) == 0 {
		return nil
	}

	accounts := resolveAccounts(scope, ordered, r.accounts)
	matches := make([]models.Match, 0, len(splits))
	for _, split := range splits {
		matches = append(matches, models.Match{
			TeamA: models.NewTeam(split.teamA, accounts, ruleset.RatingKey, r.ratingCfg.BaselineRating),
			TeamB: models.NewTeam(split.teamB, accounts, ruleset.RatingKey, r.ratingCfg.BaselineRating),
		})
	}
	return matches
}

// FilterMatch gates a candidate on the allowed team rating gap, inclusive at
// the boundary. The gap starts at RatingGapStart and widens linearly toward
// RatingGapCeiling as the candidate's reference wait time approaches
// RatingGapWidenSecond. The reference wait is taken over the candidate's own
// contributing groups, so a long-waiting group nobody can play with does not
// loosen the gate for matches it takes no part in.
func (r *Ranked) FilterMatch(match models.Match, now time.Time) bool {
	gap := math.Abs(match.TeamA.MeanRating - match.TeamB.MeanRating)
	return gap <= r.allowedGap(referenceWaitTime(match.Groups(), now))
}

// allowedGap is the maximum accepted difference of team mean ratings for a
// candidate whose contributing groups have the given reference wait.
func (r *Ranked) allowedGap(refWait time.Duration) float64 {
	widen := time.Duration(r.ruleset.RatingGapWidenSecond) * time.Second
	progress := 0.0
	if widen > 0 {
		progress = mathutil.Clamp(refWait.Seconds()/widen.Seconds(), 0, 1)
	}
	return r.ruleset.RatingGapStart + (r.ruleset.RatingGapCeiling-r.ruleset.RatingGapStart)*progress
}

// RankMatch scores a candidate as the weighted sum of the six normalized
// quality factors, plus a tiny hash-derived tie breaker so equally scored
// candidates keep a deterministic but unbiased order.
func (r *Ranked) RankMatch(match models.Match, now time.Time) float64 {
	rs := r.ruleset
	score := rs.GapWeight*gapFactor(match, rs.RatingGapCeiling) +
		rs.SpreadWeight*spreadFactor(match, rs.RatingSpreadCap) +
		rs.WaitWeight*waitFactor(match.Groups(), time.Duration(rs.WaitTimeCapSecond)*time.Second, now) +
		rs.CompositionWeight*compositionFactor(match, rs.CompositionDamageCap) +
		rs.BlockWeight*blockFactor(match, rs.BlockPenaltyStep, rs.BlockPenaltyMax) +
		rs.ConfidenceWeight*confidenceFactor(match, rs.ConfidenceGapCap)

	tieBreaker := float64(match.Hash()%1024) / 1024.0
	return score + tieBreaker*rs.TieBreakerWeight
}

// IgnoreFilterWhenStalled consults the configured stall policy.
func (r *Ranked) IgnoreFilterWhenStalled(groups []models.MatchmakingGroup, now time.Time) bool {
	if r.stallPolicy == nil {
		return false
	}
	return r.stallPolicy(groups, now)
}
