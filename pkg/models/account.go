// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package models contains the data model shared by the matchmaking engine,
// the rating engine and the queue driver.
package models

import (
	"github.com/questline/core-matchmaker/pkg/utils"
)

// AccountID identifies a player account.
type AccountID string

// RatingKey is a namespace distinguishing independent rating tracks
// (e.g. different ranked ladders).
type RatingKey string

// Role is the archetype a player last queued as. It only feeds the
// team-composition scoring factor; the engine does no role assignment.
type Role string

const (
	RoleUnknown Role = ""
	RoleTank    Role = "tank"
	RoleSupport Role = "support"
	RoleDamage  Role = "damage"
)

// RatingState is the per-account, per-rating-key skill estimate.
// ConfidenceLevel is a small non-negative integer, 0 meaning least confident.
type RatingState struct {
	Value           float64 `json:"value"`
	ConfidenceLevel int     `json:"confidence_level"`
}

// Account is a snapshot of the persisted account state the engine needs:
// rating values, confidence levels, block list and last-played role.
type Account struct {
	ID       AccountID                 `json:"id"`
	Ratings  map[RatingKey]RatingState `json:"ratings"`
	Blocked  []AccountID               `json:"blocked"`
	LastRole Role                      `json:"last_role"`
}

// Rating returns the account's rating state for the given key, falling back
// to the configured baseline with zero confidence when the account has never
// played on that track.
func (a *Account) Rating(key RatingKey, baseline float64) RatingState {
	if a == nil || a.Ratings == nil {
		return RatingState{Value: baseline}
	}
	if state, ok := a.Ratings[key]; ok {
		return state
	}
	return RatingState{Value: baseline}
}

// SetRating stores the rating state for the given key on the snapshot.
// Persistence is the caller's responsibility.
func (a *Account) SetRating(key RatingKey, state RatingState) {
	if a.Ratings == nil {
		a.Ratings = make(map[RatingKey]RatingState)
	}
	a.Ratings[key] = state
}

// IsBlocking reports whether this account has the other account on its block list.
func (a *Account) IsBlocking(other AccountID) bool {
	if a == nil {
		return false
	}
	return utils.Contains(a.Blocked, other)
}
