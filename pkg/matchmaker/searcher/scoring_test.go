// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package searcher

import (
	"testing"
	"time"

	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/stretchr/testify/assert"
)

func teamOf(accounts ...*models.Account) models.Team {
	members := make([]models.AccountID, 0, len(accounts))
	lookup := make(map[models.AccountID]*models.Account, len(accounts))
	for _, account := range accounts {
		members = append(members, account.ID)
		lookup[account.ID] = account
	}
	groups := []models.MatchmakingGroup{
		{GroupID: 1, Members: members[:1]},
	}
	if len(members) > 1 {
		groups = append(groups, models.MatchmakingGroup{GroupID: 2, Members: members[1:]})
	}
	return models.NewTeam(groups, lookup, "duel", 1500)
}

func ratedAccount(id models.AccountID, value float64) *models.Account {
	account := &models.Account{ID: id}
	account.SetRating("duel", models.RatingState{Value: value})
	return account
}

func roleAccount(id models.AccountID, role models.Role) *models.Account {
	return &models.Account{ID: id, LastRole: role}
}

func TestGapFactor_FullAtZeroGapZeroAtCap(t *testing.T) {
	even := models.Match{
		TeamA: teamOf(ratedAccount("a", 1500)),
		TeamB: teamOf(ratedAccount("b", 1500)),
	}
	lopsided := models.Match{
		TeamA: teamOf(ratedAccount("a", 2000)),
		TeamB: teamOf(ratedAccount("b", 1500)),
	}

	assert.Equal(t, 1.0, gapFactor(even, 400))
	assert.Equal(t, 0.0, gapFactor(lopsided, 400))
	assert.InDelta(t, 0.5, gapFactor(lopsided, 1000), 1e-9)
}

func TestSpreadFactor_PenalizesWideIntraTeamSpread(t *testing.T) {
	tight := models.Match{
		TeamA: teamOf(ratedAccount("a1", 1500), ratedAccount("a2", 1520)),
		TeamB: teamOf(ratedAccount("b1", 1500), ratedAccount("b2", 1480)),
	}
	carried := models.Match{
		TeamA: teamOf(ratedAccount("a1", 2400), ratedAccount("a2", 1200)),
		TeamB: teamOf(ratedAccount("b1", 1800), ratedAccount("b2", 1800)),
	}

	assert.Greater(t, spreadFactor(tight, 500), spreadFactor(carried, 500))
}

func TestWaitFactor_GrowsWithWaitAndSaturates(t *testing.T) {
	now := time.Now()
	fresh := []models.MatchmakingGroup{{GroupID: 1, Members: []models.AccountID{"p"}, QueueTime: now}}
	waited := []models.MatchmakingGroup{{GroupID: 1, Members: []models.AccountID{"p"}, QueueTime: now.Add(-150 * time.Second)}}
	ancient := []models.MatchmakingGroup{{GroupID: 1, Members: []models.AccountID{"p"}, QueueTime: now.Add(-900 * time.Second)}}

	waitCap := 300 * time.Second
	assert.InDelta(t, 0.0, waitFactor(fresh, waitCap, now), 1e-9)
	assert.InDelta(t, 0.5, waitFactor(waited, waitCap, now), 1e-9)
	assert.Equal(t, 1.0, waitFactor(ancient, waitCap, now))
}

func TestCompositionFactor_RewardsRoleCoverage(t *testing.T) {
	covered := models.Match{
		TeamA: teamOf(roleAccount("a1", models.RoleTank), roleAccount("a2", models.RoleSupport)),
		TeamB: teamOf(roleAccount("b1", models.RoleTank), roleAccount("b2", models.RoleSupport)),
	}
	allDamage := models.Match{
		TeamA: teamOf(roleAccount("a1", models.RoleDamage), roleAccount("a2", models.RoleDamage)),
		TeamB: teamOf(roleAccount("b1", models.RoleDamage), roleAccount("b2", models.RoleDamage)),
	}

	assert.Greater(t, compositionFactor(covered, 3), compositionFactor(allDamage, 3))
}

func TestCompositionFactor_TrustsAPreFormedGroup(t *testing.T) {
	soloGroupTeam := models.NewTeam(
		[]models.MatchmakingGroup{{GroupID: 1, Members: []models.AccountID{"a1", "a2"}}},
		map[models.AccountID]*models.Account{
			"a1": roleAccount("a1", models.RoleDamage),
			"a2": roleAccount("a2", models.RoleDamage),
		},
		"duel", 1500,
	)

	assert.Equal(t, 1.0, teamCompositionFactor(soloGroupTeam, 3))
}

func TestBlockFactor_StepsDownPerBlockedPair(t *testing.T) {
	friendly := models.Match{
		TeamA: teamOf(&models.Account{ID: "a1"}, &models.Account{ID: "a2"}),
	}
	hostile := models.Match{
		TeamA: teamOf(
			&models.Account{ID: "a1", Blocked: []models.AccountID{"a2"}},
			&models.Account{ID: "a2"},
		),
	}

	assert.Equal(t, 1.0, blockFactor(friendly, 0.25, 1.0))
	assert.InDelta(t, 0.75, blockFactor(hostile, 0.25, 1.0), 1e-9)
}

func TestConfidenceFactor_PenalizesConfidenceImbalance(t *testing.T) {
	balanced := models.Match{
		TeamA: models.Team{ConfidenceSum: 4},
		TeamB: models.Team{ConfidenceSum: 4},
	}
	skewed := models.Match{
		TeamA: models.Team{ConfidenceSum: 10},
		TeamB: models.Team{ConfidenceSum: 0},
	}

	assert.Equal(t, 1.0, confidenceFactor(balanced, 10))
	assert.Equal(t, 0.0, confidenceFactor(skewed, 10))
}

func TestReferenceWaitTime_AveragesTheLongestWaitingHalf(t *testing.T) {
	now := time.Now()
	groups := []models.MatchmakingGroup{
		{GroupID: 1, QueueTime: now.Add(-100 * time.Second)},
		{GroupID: 2, QueueTime: now.Add(-300 * time.Second)},
		{GroupID: 3, QueueTime: now},
		{GroupID: 4, QueueTime: now.Add(-10 * time.Second)},
	}

	// Longest-waiting half is {300s, 100s}; fresh arrivals do not dilute it.
	assert.InDelta(t, 200.0, referenceWaitTime(groups, now).Seconds(), 1e-6)
	assert.Equal(t, time.Duration(0), referenceWaitTime(nil, now))
}
