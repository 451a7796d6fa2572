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

func singleRuleset(capA int) models.Ruleset {
	ruleset := models.Ruleset{
		GameType:      "raid",
		Strategy:      models.StrategySingle,
		TeamACapacity: capA,
	}
	ruleset.SetDefaultValues()
	return ruleset
}

func TestSingle_PicksTheEarliestFittingGroup(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 3, now.Add(-10*time.Second)),
		makeGroup(2, 2, now.Add(-60*time.Second)),
	}

	single := NewSingle(singleRuleset(4), testRatingConfig(), &testsetup.StubAccountStore{})
	matches := single.GetMatchesRanked(g.TestScope, groups, now)

	g.Expect(len(matches)).To(Equal(1))
	g.Expect(matches[0].TeamA.Groups[0].GroupID).To(Equal(models.GroupID(2)))
	g.Expect(matches[0].TeamB.IsEmpty()).To(BeTrue())
}

func TestSingle_OversizedGroupStaysQueued(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 6, now.Add(-60*time.Second)),
		makeGroup(2, 2, now.Add(-10*time.Second)),
	}

	single := NewSingle(singleRuleset(4), testRatingConfig(), &testsetup.StubAccountStore{})
	matches := single.GetMatchesRanked(g.TestScope, groups, now)

	// The oversized group is passed over; the next fitting one goes out.
	g.Expect(len(matches)).To(Equal(1))
	g.Expect(matches[0].TeamA.Groups[0].GroupID).To(Equal(models.GroupID(2)))
}

func TestSingle_EmptyWhenNothingFits(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	groups := []models.MatchmakingGroup{
		makeGroup(1, 6, now),
	}

	single := NewSingle(singleRuleset(4), testRatingConfig(), &testsetup.StubAccountStore{})
	matches := single.GetMatchesRanked(g.TestScope, groups, now)

	g.Expect(matches).To(BeEmpty())
}
