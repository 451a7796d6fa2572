// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetentionRule maps time away from a mode to a confidence decay.
// Rules are evaluated longest-to-shortest; the first rule whose elapsed
// threshold is met applies.
type RetentionRule struct {
	MinElapsedSecond int64 `json:"min_elapsed_second"`
	Decay            int   `json:"decay"`
}

// RatingConfig is the tunable policy of the rating engine.
type RatingConfig struct {
	BaselineRating float64 `json:"baseline_rating"`
	BasePot        float64 `json:"base_pot"`

	// ConfidenceFactors maps a confidence level (the slice index) to the
	// multiplicative factor applied to that player's share of the pot.
	ConfidenceFactors []float64 `json:"confidence_factors"`

	// RetentionRules must be ordered by MinElapsedSecond descending.
	RetentionRules []RetentionRule `json:"retention_rules"`

	// PromotionCounts[level] is how many matches within the freshest
	// retention window promote a player from that level to level+1.
	// A zero or missing entry means the level cannot promote.
	PromotionCounts []int `json:"promotion_counts"`
}

// RatingConfigFromJSON decodes, validates and defaults a rating config.
func RatingConfigFromJSON(jsonConfig string) (RatingConfig, error) {
	var cfg RatingConfig
	if err := json.Unmarshal([]byte(jsonConfig), &cfg); err != nil {
		return RatingConfig{}, err
	}
	cfg.SetDefaultValues()
	if err := cfg.Validate(); err != nil {
		return RatingConfig{}, err
	}

	return cfg, nil
}

// Validate checks structural consistency of the rating config.
func (c RatingConfig) Validate() error {
	if len(c.ConfidenceFactors) == 0 {
		return fmt.Errorf("%w: confidence factor table must not be empty", ErrInvalidRuleset)
	}
	for i := 1; i < len(c.RetentionRules); i++ {
		if c.RetentionRules[i].MinElapsedSecond > c.RetentionRules[i-1].MinElapsedSecond {
			return fmt.Errorf("%w: retention rules must be ordered longest first", ErrInvalidRuleset)
		}
	}

	return nil
}

// SetDefaultValues fills unset tunables with workable defaults.
func (c *RatingConfig) SetDefaultValues() {
	if c.BaselineRating == 0 {
		c.BaselineRating = 1500
	}
	if c.BasePot == 0 {
		c.BasePot = 64
	}
	if len(c.ConfidenceFactors) == 0 {
		c.ConfidenceFactors = []float64{1.0, 0.75, 0.5}
	}
	if len(c.RetentionRules) == 0 {
		c.RetentionRules = []RetentionRule{
			{MinElapsedSecond: 28 * 24 * 3600, Decay: 2},
			{MinElapsedSecond: 14 * 24 * 3600, Decay: 1},
		}
	}
	if len(c.PromotionCounts) == 0 {
		c.PromotionCounts = []int{3, 5}
	}
}

// MaxConfidenceLevel is the top confidence tier.
func (c RatingConfig) MaxConfidenceLevel() int {
	return len(c.ConfidenceFactors) - 1
}

// FactorForLevel maps a confidence level to its pot factor, clamping levels
// outside the configured table.
func (c RatingConfig) FactorForLevel(level int) float64 {
	if len(c.ConfidenceFactors) == 0 {
		return 1.0
	}
	if level < 0 {
		level = 0
	}
	if level >= len(c.ConfidenceFactors) {
		level = len(c.ConfidenceFactors) - 1
	}
	return c.ConfidenceFactors[level]
}

// FreshWindow is the shortest retention threshold, the window within which
// matches count toward a confidence promotion.
func (c RatingConfig) FreshWindow() time.Duration {
	if len(c.RetentionRules) == 0 {
		return 0
	}
	return time.Duration(c.RetentionRules[len(c.RetentionRules)-1].MinElapsedSecond) * time.Second
}

// PromotionCountForLevel returns the promotion threshold for a level,
// 0 meaning the level cannot promote.
func (c RatingConfig) PromotionCountForLevel(level int) int {
	if level < 0 || level >= len(c.PromotionCounts) {
		return 0
	}
	return c.PromotionCounts[level]
}
