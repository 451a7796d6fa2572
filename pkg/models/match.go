// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"encoding/binary"
	"hash/fnv"

	"gonum.org/v1/gonum/stat"
)

// Team is a set of groups matched onto the same side, together with the
// account snapshots and rating aggregates the ranking heuristic consumes.
// A Team is derived entirely from its groups and never mutated; build a new
// one whenever composition changes.
type Team struct {
	Groups        []MatchmakingGroup
	Accounts      map[AccountID]*Account
	MeanRating    float64
	MinRating     float64
	MaxRating     float64
	ConfidenceSum int
}

// NewTeam derives a Team from its groups. Accounts missing from the lookup
// map are scored at the baseline rating with zero confidence.
func NewTeam(groups []MatchmakingGroup, accounts map[AccountID]*Account, key RatingKey, baseline float64) Team {
	team := Team{
		Groups:   groups,
		Accounts: make(map[AccountID]*Account),
	}

	var ratings []float64
	for _, group := range groups {
		for _, id := range group.Members {
			account := accounts[id]
			if account != nil {
				team.Accounts[id] = account
			}
			state := account.Rating(key, baseline)
			ratings = append(ratings, state.Value)
			team.ConfidenceSum += state.ConfidenceLevel
		}
	}

	if len(ratings) == 0 {
		return team
	}

	team.MeanRating = stat.Mean(ratings, nil)
	team.MinRating = ratings[0]
	team.MaxRating = ratings[0]
	for _, r := range ratings[1:] {
		if r < team.MinRating {
			team.MinRating = r
		}
		if r > team.MaxRating {
			team.MaxRating = r
		}
	}

	return team
}

// Size returns the number of players on the team.
func (t Team) Size() int {
	var n int
	for _, group := range t.Groups {
		n += group.Size()
	}
	return n
}

// IsEmpty reports whether the team has no groups assigned.
func (t Team) IsEmpty() bool {
	return len(t.Groups) == 0
}

// AccountIDs returns the member ids across all the team's groups.
func (t Team) AccountIDs() []AccountID {
	ids := make([]AccountID, 0, t.Size())
	for _, group := range t.Groups {
		ids = append(ids, group.Members...)
	}
	return ids
}

// Match is a concrete two-team assignment of groups selected from the queue.
// TeamB is empty for single-group (versus environment) modes.
type Match struct {
	TeamA Team
	TeamB Team
}

// Groups returns every group consumed by the match.
func (m Match) Groups() []MatchmakingGroup {
	groups := make([]MatchmakingGroup, 0, len(m.TeamA.Groups)+len(m.TeamB.Groups))
	groups = append(groups, m.TeamA.Groups...)
	groups = append(groups, m.TeamB.Groups...)
	return groups
}

// GroupIDs returns the ids of every group consumed by the match.
func (m Match) GroupIDs() []GroupID {
	groups := m.Groups()
	ids := make([]GroupID, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.GroupID)
	}
	return ids
}

// Hash is the canonical identity of the team split. It ignores member order
// within a team and side order across teams, so A-vs-B and B-vs-A collapse
// to the same value.
func (m Match) Hash() uint64 {
	return SplitHash(m.TeamA.Groups, m.TeamB.Groups)
}

// SplitHash hashes a prospective team split before Team objects exist.
// The search uses it to dedupe candidates while enumerating partitions.
func SplitHash(teamA, teamB []MatchmakingGroup) uint64 {
	a := memberMultisetHash(teamA)
	b := memberMultisetHash(teamB)
	if a > b {
		a, b = b, a
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}

// memberMultisetHash folds member-account-id hashes with addition so the
// result is independent of member and group order.
func memberMultisetHash(groups []MatchmakingGroup) uint64 {
	var sum uint64
	for _, group := range groups {
		for _, id := range group.Members {
			h := fnv.New64a()
			h.Write([]byte(id))
			sum += h.Sum64()
		}
	}
	return sum
}
