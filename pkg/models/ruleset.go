// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/copystructure"
)

// GameType identifies a game mode with its own queue and ruleset.
type GameType string

// StrategyType selects the match search strategy for a game mode.
// The set is closed; there is no open-ended strategy registration.
type StrategyType string

const (
	StrategyRanked StrategyType = "ranked"
	StrategyFIFO   StrategyType = "fifo"
	StrategySingle StrategyType = "single"
)

// ErrInvalidRuleset is returned when a decoded ruleset fails validation.
var ErrInvalidRuleset = errors.New("invalid ruleset")

// FlexingRule widens or narrows team capacities once the oldest contributing
// group has waited at least DurationSecond. When several rules are active the
// one with the biggest duration wins.
type FlexingRule struct {
	DurationSecond int64 `json:"duration_second"`
	TeamACapacity  int   `json:"team_a_capacity"`
	TeamBCapacity  int   `json:"team_b_capacity"`
}

// Ruleset is the tunable matchmaking policy for one game mode. Every value
// here is configuration; nothing in the engine hard-codes policy.
type Ruleset struct {
	GameType      GameType     `json:"game_type"`
	Strategy      StrategyType `json:"strategy"`
	RatingKey     RatingKey    `json:"rating_key"`
	TeamACapacity int          `json:"team_a_capacity"`
	TeamBCapacity int          `json:"team_b_capacity"`

	// Filtering gate: the allowed team rating gap starts at RatingGapStart
	// and widens linearly to RatingGapCeiling as the reference wait time
	// approaches RatingGapWidenSecond.
	RatingGapStart       float64 `json:"rating_gap_start"`
	RatingGapCeiling     float64 `json:"rating_gap_ceiling"`
	RatingGapWidenSecond int64   `json:"rating_gap_widen_second"`

	// Normalization caps for the ranking factors.
	RatingSpreadCap      float64 `json:"rating_spread_cap"`
	WaitTimeCapSecond    int64   `json:"wait_time_cap_second"`
	ConfidenceGapCap     float64 `json:"confidence_gap_cap"`
	BlockPenaltyStep     float64 `json:"block_penalty_step"`
	BlockPenaltyMax      float64 `json:"block_penalty_max"`
	CompositionDamageCap int     `json:"composition_damage_cap"`

	// Per-factor ranking weights. Defaults apply only when all six are
	// left unset, so a single factor can still be configured to zero.
	GapWeight         float64 `json:"gap_weight"`
	SpreadWeight      float64 `json:"spread_weight"`
	WaitWeight        float64 `json:"wait_weight"`
	CompositionWeight float64 `json:"composition_weight"`
	BlockWeight       float64 `json:"block_weight"`
	ConfidenceWeight  float64 `json:"confidence_weight"`
	TieBreakerWeight  float64 `json:"tie_breaker_weight"`

	// StallSecond is the ignore-filter escape valve: once the oldest queued
	// group has waited this long, a pass that filtered out every candidate
	// falls back to the unfiltered candidates. 0 disables the valve.
	StallSecond int64 `json:"stall_second"`

	FlexingRule []FlexingRule `json:"flexing_rule"`
}

// RulesetFromJSON decodes, validates and defaults a ruleset.
func RulesetFromJSON(jsonRules string) (Ruleset, error) {
	var ruleset Ruleset
	if err := json.Unmarshal([]byte(jsonRules), &ruleset); err != nil {
		return Ruleset{}, err
	}
	if err := ruleset.Validate(); err != nil {
		return Ruleset{}, err
	}
	ruleset.SetDefaultValues()

	return ruleset, nil
}

// Validate checks structural consistency of the ruleset.
func (r Ruleset) Validate() error {
	if r.GameType == "" {
		return fmt.Errorf("%w: game_type is required", ErrInvalidRuleset)
	}
	switch r.Strategy {
	case StrategyRanked, StrategyFIFO:
		if r.TeamACapacity <= 0 || r.TeamBCapacity <= 0 {
			return fmt.Errorf("%w: %s strategy needs both team capacities", ErrInvalidRuleset, r.Strategy)
		}
	case StrategySingle:
		if r.TeamACapacity <= 0 {
			return fmt.Errorf("%w: single strategy needs team A capacity", ErrInvalidRuleset)
		}
		if r.TeamBCapacity != 0 {
			return fmt.Errorf("%w: single strategy plays against the environment, team B capacity must be 0", ErrInvalidRuleset)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidRuleset, r.Strategy)
	}
	if r.RatingGapCeiling != 0 && r.RatingGapCeiling < r.RatingGapStart {
		return fmt.Errorf("%w: rating gap ceiling below start", ErrInvalidRuleset)
	}
	for _, w := range []float64{r.GapWeight, r.SpreadWeight, r.WaitWeight, r.CompositionWeight, r.BlockWeight, r.ConfidenceWeight} {
		if w < 0 {
			return fmt.Errorf("%w: ranking weights must not be negative", ErrInvalidRuleset)
		}
	}

	return nil
}

// SetDefaultValues fills unset tunables with workable defaults.
func (r *Ruleset) SetDefaultValues() {
	if r.RatingKey == "" {
		r.RatingKey = RatingKey(r.GameType)
	}
	if r.RatingGapStart == 0 {
		r.RatingGapStart = 100
	}
	if r.RatingGapCeiling == 0 {
		r.RatingGapCeiling = 400
	}
	if r.RatingGapWidenSecond == 0 {
		r.RatingGapWidenSecond = 300
	}
	if r.RatingSpreadCap == 0 {
		r.RatingSpreadCap = 500
	}
	if r.WaitTimeCapSecond == 0 {
		r.WaitTimeCapSecond = 300
	}
	if r.ConfidenceGapCap == 0 {
		r.ConfidenceGapCap = 10
	}
	if r.BlockPenaltyStep == 0 {
		r.BlockPenaltyStep = 0.25
	}
	if r.BlockPenaltyMax == 0 {
		r.BlockPenaltyMax = 1.0
	}
	if r.CompositionDamageCap == 0 {
		r.CompositionDamageCap = 3
	}

	allWeightsUnset := r.GapWeight == 0 && r.SpreadWeight == 0 && r.WaitWeight == 0 &&
		r.CompositionWeight == 0 && r.BlockWeight == 0 && r.ConfidenceWeight == 0
	if allWeightsUnset {
		r.GapWeight = DefaultWeightValue
		r.SpreadWeight = DefaultWeightValue
		r.WaitWeight = DefaultWeightValue
		r.CompositionWeight = DefaultWeightValue
		r.BlockWeight = DefaultWeightValue
		r.ConfidenceWeight = DefaultWeightValue
	}
	if r.TieBreakerWeight == 0 {
		r.TieBreakerWeight = 0.001
	}
}

// DefaultWeightValue is the weight applied to ranking factors when none are configured.
const DefaultWeightValue = float64(1.0)

// Copy deep copies the ruleset so flexing can override capacities without
// touching the source policy.
func (r Ruleset) Copy() Ruleset {
	copied, err := copystructure.Copy(r)
	if err != nil {
		return r
	}
	return copied.(Ruleset)
}

// ApplyFlexingRule returns the ruleset with the active flexing rule applied,
// pivoting on the oldest contributing group's queue time. When several rules
// are active the one with the biggest duration wins so an older flex step is
// never re-applied over a newer one.
func (r Ruleset) ApplyFlexingRule(pivotTime time.Time, now time.Time) (Ruleset, bool) {
	if len(r.FlexingRule) == 0 {
		return r, false
	}

	ruleset := r.Copy()
	flexed := false
	var highestDuration int64
	for _, flexRule := range ruleset.FlexingRule {
		flexDuration := time.Duration(flexRule.DurationSecond) * time.Second
		if !pivotTime.Add(flexDuration).Before(now) {
			continue
		}
		if highestDuration > flexRule.DurationSecond {
			continue
		}
		highestDuration = flexRule.DurationSecond

		ruleset.TeamACapacity = flexRule.TeamACapacity
		ruleset.TeamBCapacity = flexRule.TeamBCapacity
		flexed = true
	}

	return ruleset, flexed
}
