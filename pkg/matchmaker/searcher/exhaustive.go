// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"github.com/questline/core-matchmaker/pkg/models"
)

// limit based on DFS loop iteration
const defaultMaxIteration = 1_000_000

// choices tried for each group, in order. A group that fits neither team at
// its current fill level is skipped for the branch, not discarded globally.
const (
	choiceTeamA = iota
	choiceTeamB
	choiceSkip
	choiceExhausted
)

// teamSplit is one complete, structurally valid partition of a disjoint
// subset of the queued groups into two exactly-full teams.
type teamSplit struct {
	teamA []models.MatchmakingGroup
	teamB []models.MatchmakingGroup
}

// enumerateTeamSplits enumerates every way to pick a disjoint subset of
// groups whose sizes sum exactly to each team's capacity, never splitting a
// group. It is an explicit stack-based depth-first search: frames[depth]
// records the choice taken for groups[depth], and backtracking pops the most
// recently pushed group to explore the next branch. A seen-hash set collapses
// A-vs-B and B-vs-A into one candidate.
//
// When firstOnly is set, enumeration stops at the first valid split; groups
// are considered in input order at every level, so callers control priority
// by pre-ordering the input.
func enumerateTeamSplits(groups []models.MatchmakingGroup, capA, capB int, firstOnly bool, maxIteration int, pool *models.Pool) []teamSplit {
	if capA <= 0 || capB <= 0 || len(groups) == 0 {
		return nil
	}
	if maxIteration <= 0 {
		maxIteration = defaultMaxIteration
	}

	teamA := pool.Groups.Get()[:0]
	teamB := pool.Groups.Get()[:0]
	defer func() {
		pool.Groups.Put(teamA[:0])
		pool.Groups.Put(teamB[:0])
	}()

	frames := make([]int, len(groups)+1)
	seen := make(map[uint64]struct{})
	var splits []teamSplit

	sizeA, sizeB := 0, 0
	depth := 0
	frames[0] = choiceTeamA

	for iteration := 0; iteration < maxIteration; iteration++ {
		complete := sizeA == capA && sizeB == capB
		if complete || depth == len(groups) || frames[depth] >= choiceExhausted {
			if complete {
				hash := models.SplitHash(teamA, teamB)
				if _, dup := seen[hash]; !dup {
					seen[hash] = struct{}{}
					splits = append(splits, teamSplit{
						teamA: cloneGroups(teamA),
						teamB: cloneGroups(teamB),
					})
					if firstOnly {
						return splits
					}
				}
			}

			// Unwind to the most recent depth with an untried choice.
			backtracked := false
			for depth > 0 {
				depth--
				switch frames[depth] {
				case choiceTeamA:
					teamA = teamA[:len(teamA)-1]
					sizeA -= groups[depth].Size()
				case choiceTeamB:
					teamB = teamB[:len(teamB)-1]
					sizeB -= groups[depth].Size()
				}
				frames[depth]++
				if frames[depth] < choiceExhausted {
					backtracked = true
					break
				}
			}
			if !backtracked {
				return splits
			}
			continue
		}

		group := groups[depth]
		switch frames[depth] {
		case choiceTeamA:
			if sizeA+group.Size() <= capA {
				teamA = append(teamA, group)
				sizeA += group.Size()
				depth++
				frames[depth] = choiceTeamA
				continue
			}
		case choiceTeamB:
			if sizeB+group.Size() <= capB {
				teamB = append(teamB, group)
				sizeB += group.Size()
				depth++
				frames[depth] = choiceTeamA
				continue
			}
		case choiceSkip:
			depth++
			frames[depth] = choiceTeamA
			continue
		}
		frames[depth]++
	}

	return splits
}

func cloneGroups(groups []models.MatchmakingGroup) []models.MatchmakingGroup {
	return append([]models.MatchmakingGroup(nil), groups...)
}
