// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
	"time"
)

// ErrGroupAlreadyQueued is returned when a group is enqueued twice.
var ErrGroupAlreadyQueued = errors.New("group already queued")

// ErrPenaltyActive is returned when a member of an enqueuing group is still
// blocked by a queue penalty.
var ErrPenaltyActive = errors.New("queue penalty active")

// ErrUnknownGameType is returned for operations against a game type with no
// configured queue.
var ErrUnknownGameType = errors.New("unknown game type")

// QueuePenalty blocks a player from (re)entering a queue after abandoning a
// started match. MatchID is the abandoned match; the penalty is pardoned
// early when that match is observed to be no longer in progress.
type QueuePenalty struct {
	GameType   GameType  `json:"game_type"`
	AccountID  AccountID `json:"account_id"`
	MatchID    string    `json:"match_id"`
	BlockUntil time.Time `json:"block_until"`
}

// Expired reports whether the penalty has run out as of now.
func (p QueuePenalty) Expired(now time.Time) bool {
	return !p.BlockUntil.After(now)
}
