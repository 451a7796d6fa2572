// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import "time"

// Side identifies the winning side of a concluded game.
type Side string

const (
	SideNone  Side = ""
	SideTeamA Side = "team_a"
	SideTeamB Side = "team_b"
)

// GameInfo describes a concluded game's composition as handed to the rating
// engine by the game-end hook.
type GameInfo struct {
	MatchID  string      `json:"match_id"`
	GameType GameType    `json:"game_type"`
	TeamA    []AccountID `json:"team_a"`
	TeamB    []AccountID `json:"team_b"`
}

// IsVersus reports whether the game had two player teams. Single-group games
// against the environment never move ratings.
func (g GameInfo) IsVersus() bool {
	return len(g.TeamA) > 0 && len(g.TeamB) > 0
}

// Participants returns every account that took part in the game.
func (g GameInfo) Participants() []AccountID {
	ids := make([]AccountID, 0, len(g.TeamA)+len(g.TeamB))
	ids = append(ids, g.TeamA...)
	ids = append(ids, g.TeamB...)
	return ids
}

// GameSummary is the outcome of a concluded game.
type GameSummary struct {
	Winner  Side      `json:"winner"`
	EndedAt time.Time `json:"ended_at"`
}

// IsDecisive reports whether the game produced a winner.
func (s GameSummary) IsDecisive() bool {
	return s.Winner == SideTeamA || s.Winner == SideTeamB
}

// MatchSummary is a past match as stored by the match-history collaborator,
// used for confidence decay and promotion.
type MatchSummary struct {
	MatchID  string   `json:"match_id"`
	GameType GameType `json:"game_type"`
	Winner   Side     `json:"winner"`
	EndedAt  time.Time `json:"ended_at"`
}
