// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesetFromJSON_AppliesDefaults(t *testing.T) {
	ruleset, err := RulesetFromJSON(`{
		"game_type": "duel",
		"strategy": "ranked",
		"team_a_capacity": 1,
		"team_b_capacity": 1
	}`)
	require.NoError(t, err)

	assert.Equal(t, RatingKey("duel"), ruleset.RatingKey)
	assert.Equal(t, 100.0, ruleset.RatingGapStart)
	assert.Equal(t, 400.0, ruleset.RatingGapCeiling)
	assert.Equal(t, DefaultWeightValue, ruleset.GapWeight)
	assert.Equal(t, DefaultWeightValue, ruleset.ConfidenceWeight)
	assert.Equal(t, 0.001, ruleset.TieBreakerWeight)
}

func TestRulesetFromJSON_KeepsExplicitZeroWeight(t *testing.T) {
	ruleset, err := RulesetFromJSON(`{
		"game_type": "duel",
		"strategy": "ranked",
		"team_a_capacity": 1,
		"team_b_capacity": 1,
		"gap_weight": 2.0
	}`)
	require.NoError(t, err)

	// One configured weight disables defaulting for the other five.
	assert.Equal(t, 2.0, ruleset.GapWeight)
	assert.Zero(t, ruleset.WaitWeight)
}

func TestRuleset_ValidateRejectsBadShapes(t *testing.T) {
	cases := map[string]Ruleset{
		"missing game type": {Strategy: StrategyRanked, TeamACapacity: 1, TeamBCapacity: 1},
		"unknown strategy":  {GameType: "x", Strategy: "best-effort", TeamACapacity: 1, TeamBCapacity: 1},
		"ranked without team b": {
			GameType: "x", Strategy: StrategyRanked, TeamACapacity: 5,
		},
		"single with team b": {
			GameType: "x", Strategy: StrategySingle, TeamACapacity: 4, TeamBCapacity: 4,
		},
		"ceiling below start": {
			GameType: "x", Strategy: StrategyRanked, TeamACapacity: 1, TeamBCapacity: 1,
			RatingGapStart: 300, RatingGapCeiling: 100,
		},
		"negative weight": {
			GameType: "x", Strategy: StrategyRanked, TeamACapacity: 1, TeamBCapacity: 1,
			WaitWeight: -1,
		},
	}

	for name, ruleset := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ruleset.Validate(), ErrInvalidRuleset)
		})
	}
}

func TestRuleset_ApplyFlexingRulePicksTheBiggestActiveDuration(t *testing.T) {
	now := time.Now()
	ruleset := Ruleset{
		GameType: "duel", Strategy: StrategyRanked,
		TeamACapacity: 5, TeamBCapacity: 5,
		FlexingRule: []FlexingRule{
			{DurationSecond: 60, TeamACapacity: 4, TeamBCapacity: 4},
			{DurationSecond: 180, TeamACapacity: 3, TeamBCapacity: 3},
		},
	}

	fresh, flexed := ruleset.ApplyFlexingRule(now.Add(-30*time.Second), now)
	assert.False(t, flexed)
	assert.Equal(t, 5, fresh.TeamACapacity)

	step1, flexed := ruleset.ApplyFlexingRule(now.Add(-90*time.Second), now)
	assert.True(t, flexed)
	assert.Equal(t, 4, step1.TeamACapacity)

	step2, flexed := ruleset.ApplyFlexingRule(now.Add(-300*time.Second), now)
	assert.True(t, flexed)
	assert.Equal(t, 3, step2.TeamACapacity)

	// The source policy is never mutated.
	assert.Equal(t, 5, ruleset.TeamACapacity)
}

func TestRatingConfig_DefaultsAndLookups(t *testing.T) {
	cfg := RatingConfig{}
	cfg.SetDefaultValues()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1500.0, cfg.BaselineRating)
	assert.Equal(t, 64.0, cfg.BasePot)
	assert.Equal(t, 2, cfg.MaxConfidenceLevel())
	assert.Equal(t, 1.0, cfg.FactorForLevel(0))
	assert.Equal(t, 0.5, cfg.FactorForLevel(99))
	assert.Equal(t, 14*24*time.Hour, cfg.FreshWindow())
	assert.Equal(t, 3, cfg.PromotionCountForLevel(0))
	assert.Equal(t, 0, cfg.PromotionCountForLevel(2))
}

func TestRatingConfig_ValidateRejectsUnorderedRetentionRules(t *testing.T) {
	cfg := RatingConfig{
		ConfidenceFactors: []float64{1.0},
		RetentionRules: []RetentionRule{
			{MinElapsedSecond: 100, Decay: 1},
			{MinElapsedSecond: 200, Decay: 2},
		},
	}

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidRuleset)
}
