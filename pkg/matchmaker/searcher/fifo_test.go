// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/testsetup"
)

func fifoRuleset(capA, capB int) models.Ruleset {
	ruleset := models.Ruleset{
		GameType:      "casual",
		Strategy:      models.StrategyFIFO,
		TeamACapacity: capA,
		TeamBCapacity: capB,
	}
	ruleset.SetDefaultValues()
	return ruleset
}

func TestFIFO_ReturnsOnlyTheFirstValidSplit(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 1, now.Add(-40*time.Second)),
		makeGroup(2, 1, now.Add(-30*time.Second)),
		makeGroup(3, 1, now.Add(-20*time.Second)),
		makeGroup(4, 1, now.Add(-10*time.Second)),
	}

	fifo := NewFIFO(fifoRuleset(1, 1), testRatingConfig(), &testsetup.StubAccountStore{}, 0)
	matches := fifo.GetMatchesRanked(g.TestScope, groups, now)

	g.Expect(len(matches)).To(Equal(1))
	// Oldest two groups pair up regardless of any rating difference.
	g.Expect(matches[0].TeamA.Groups[0].GroupID).To(Equal(models.GroupID(1)))
	g.Expect(matches[0].TeamB.Groups[0].GroupID).To(Equal(models.GroupID(2)))
}

func TestFIFO_OrdersByQueueTimeNotInputOrder(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 1, now.Add(-10*time.Second)),
		makeGroup(2, 1, now.Add(-90*time.Second)),
		makeGroup(3, 1, now.Add(-50*time.Second)),
	}

	fifo := NewFIFO(fifoRuleset(1, 1), testRatingConfig(), &testsetup.StubAccountStore{}, 0)
	matches := fifo.GetMatchesRanked(g.TestScope, groups, now)

	g.Expect(len(matches)).To(Equal(1))
	g.Expect(matches[0].TeamA.Groups[0].GroupID).To(Equal(models.GroupID(2)))
	g.Expect(matches[0].TeamB.Groups[0].GroupID).To(Equal(models.GroupID(3)))
}

func TestFIFO_NoMatchWhenTeamsCannotFill(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 2, now),
	}

	fifo := NewFIFO(fifoRuleset(2, 2), testRatingConfig(), &testsetup.StubAccountStore{}, 0)
	matches := fifo.GetMatchesRanked(g.TestScope, groups, now)

	g.Expect(matches).To(BeEmpty())
}
