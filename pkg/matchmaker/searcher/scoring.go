// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"math"
	"sort"
	"time"

	"github.com/questline/core-matchmaker/pkg/mathutil"
	"github.com/questline/core-matchmaker/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// gapFactor scores the difference between the two teams' mean ratings,
// 1 for identical means down to 0 at maxAllowedGap or beyond.
func gapFactor(match models.Match, maxAllowedGap float64) float64 {
	if maxAllowedGap <= 0 {
		return 1
	}
	gap := math.Abs(match.TeamA.MeanRating - match.TeamB.MeanRating)
	return 1 - mathutil.Clamp(gap/maxAllowedGap, 0, 1)
}

// spreadFactor penalizes stacking a much-stronger player with much-weaker
// teammates, averaging the intra-team rating spread across both teams.
func spreadFactor(match models.Match, spreadCap float64) float64 {
	if spreadCap <= 0 {
		return 1
	}
	teams := []models.Team{match.TeamA, match.TeamB}
	var total float64
	for _, team := range teams {
		spread := team.MaxRating - team.MinRating
		total += 1 - mathutil.Clamp(spread/spreadCap, 0, 1)
	}
	return total / float64(len(teams))
}

// waitFactor rewards matches that relieve long-waiting groups, taking the
// root-mean-square of the contributing groups' wait durations against the
// configured cap.
func waitFactor(groups []models.MatchmakingGroup, waitCap time.Duration, now time.Time) float64 {
	if waitCap <= 0 || len(groups) == 0 {
		return 0
	}
	squares := make([]float64, 0, len(groups))
	for _, group := range groups {
		wait := group.WaitTime(now).Seconds()
		squares = append(squares, wait*wait)
	}
	rms := math.Sqrt(stat.Mean(squares, nil))
	return mathutil.Clamp(rms/waitCap.Seconds(), 0, 1)
}

// teamCompositionFactor rewards distinct role archetypes on a team assembled
// from more than one group. A single pre-formed group is trusted as-is.
func teamCompositionFactor(team models.Team, damageCap int) float64 {
	if len(team.Groups) <= 1 {
		return 1
	}

	var tanks, supports, damage int
	for _, account := range team.Accounts {
		switch account.LastRole {
		case models.RoleTank:
			tanks++
		case models.RoleSupport:
			supports++
		case models.RoleDamage:
			damage++
		}
	}

	var score float64
	if tanks > 0 {
		score += 0.4
	}
	if supports > 0 {
		score += 0.4
	}
	if damageCap > 0 {
		score += 0.2 * float64(mathutil.Min(damage, damageCap)) / float64(damageCap)
	}
	return score
}

// compositionFactor averages the team composition score across both teams.
func compositionFactor(match models.Match, damageCap int) float64 {
	if match.TeamB.IsEmpty() {
		return teamCompositionFactor(match.TeamA, damageCap)
	}
	return (teamCompositionFactor(match.TeamA, damageCap) + teamCompositionFactor(match.TeamB, damageCap)) / 2
}

// blockFactor penalizes placing mutually-blocking accounts on the same team,
// stepping toward 0 per blocked pair and saturating at maxPenalty.
func blockFactor(match models.Match, step float64, maxPenalty float64) float64 {
	pairs := blockedPairsOnTeam(match.TeamA) + blockedPairsOnTeam(match.TeamB)
	penalty := mathutil.Min(float64(pairs)*step, maxPenalty)
	return 1 - mathutil.Clamp(penalty, 0, 1)
}

// blockedPairsOnTeam counts unordered member pairs where either side blocks
// the other.
func blockedPairsOnTeam(team models.Team) int {
	ids := team.AccountIDs()
	var pairs int
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := team.Accounts[ids[i]]
			b := team.Accounts[ids[j]]
			if a.IsBlocking(ids[j]) || b.IsBlocking(ids[i]) {
				pairs++
			}
		}
	}
	return pairs
}

// confidenceFactor penalizes a large gap between the teams' summed
// rating-confidence levels.
func confidenceFactor(match models.Match, gapCap float64) float64 {
	if gapCap <= 0 {
		return 1
	}
	gap := math.Abs(float64(match.TeamA.ConfidenceSum - match.TeamB.ConfidenceSum))
	return 1 - mathutil.Clamp(gap/gapCap, 0, 1)
}

// referenceWaitTime is the average wait of the longest-waiting half of the
// contributing groups, so a handful of very fresh groups cannot force an
// artificially tight rating gap while older groups wait.
func referenceWaitTime(groups []models.MatchmakingGroup, now time.Time) time.Duration {
	if len(groups) == 0 {
		return 0
	}
	waits := make([]float64, 0, len(groups))
	for _, group := range groups {
		waits = append(waits, group.WaitTime(now).Seconds())
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(waits)))

	half := (len(waits) + 1) / 2
	return time.Duration(stat.Mean(waits[:half], nil) * float64(time.Second))
}
