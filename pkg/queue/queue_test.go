// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/matchmaker/searcher"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/testsetup"
)

func duelRuleset() models.Ruleset {
	ruleset := models.Ruleset{
		GameType:      "duel",
		Strategy:      models.StrategyRanked,
		TeamACapacity: 1,
		TeamBCapacity: 1,
	}
	ruleset.SetDefaultValues()
	return ruleset
}

func defaultRatingConfig() models.RatingConfig {
	cfg := models.RatingConfig{}
	cfg.SetDefaultValues()
	return cfg
}

func registryGroup(id int64, members ...models.AccountID) models.RegistryGroup {
	return models.RegistryGroup{GroupID: models.GroupID(id), Members: members, Leader: members[0]}
}

func newDuelQueue(registry matchmaker.GroupRegistry, servers matchmaker.GameServerProvider) *GameQueue {
	ruleset := duelRuleset()
	search := searcher.New(ruleset, defaultRatingConfig(), &testsetup.StubAccountStore{}, 0)
	return NewGameQueue(ruleset, search, registry, servers, testsetup.NewMetrics(), time.Second, time.Second)
}

func TestGameQueue_UpdateFormsAndLaunchesAMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{
			1: registryGroup(1, "p1"),
			2: registryGroup(2, "p2"),
		},
	}
	provider := &testsetup.StubGameServerProvider{}
	gameQueue := newDuelQueue(registry, provider)

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[2], now)).To(Succeed())

	gameQueue.Update(g.TestScope)

	g.Eventually(provider.LaunchedCount).Should(Equal(1))
	g.Expect(gameQueue.Contains(1)).To(BeFalse())
	g.Expect(gameQueue.Contains(2)).To(BeFalse())
}

func TestGameQueue_DoubleAddIsRejected(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{1: registryGroup(1, "p1")},
	}
	gameQueue := newDuelQueue(registry, &testsetup.StubGameServerProvider{})

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(MatchError(models.ErrGroupAlreadyQueued))
}

func TestGameQueue_NoServerKeepsGroupsQueued(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{
			1: registryGroup(1, "p1"),
			2: registryGroup(2, "p2"),
		},
	}
	provider := &testsetup.StubGameServerProvider{ReserveErr: matchmaker.ErrNoServerAvailable}
	gameQueue := newDuelQueue(registry, provider)

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[2], now)).To(Succeed())

	gameQueue.Update(g.TestScope)

	// The found match is discarded, not the groups.
	g.Expect(gameQueue.Contains(1)).To(BeTrue())
	g.Expect(gameQueue.Contains(2)).To(BeTrue())
	g.Expect(provider.LaunchedCount()).To(BeZero())
}

func TestGameQueue_FailedLaunchRequeuesGroups(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{
			1: registryGroup(1, "p1"),
			2: registryGroup(2, "p2"),
		},
	}
	provider := &testsetup.StubGameServerProvider{LaunchErr: fmt.Errorf("load-out failed")}
	gameQueue := newDuelQueue(registry, provider)

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[2], now)).To(Succeed())

	gameQueue.Update(g.TestScope)

	g.Eventually(func() bool {
		return gameQueue.Contains(1) && gameQueue.Contains(2)
	}).Should(BeTrue())
	g.Eventually(func() bool {
		servers := provider.ReservedServers()
		return len(servers) == 1 && servers[0].IsReleased()
	}).Should(BeTrue())
}

func TestGameQueue_VanishedGroupIsDroppedSilently(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	// Group 2 was admitted but the registry no longer knows it.
	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{1: registryGroup(1, "p1")},
	}
	provider := &testsetup.StubGameServerProvider{}
	gameQueue := newDuelQueue(registry, provider)

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registryGroup(1, "p1"), now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registryGroup(2, "p2"), now)).To(Succeed())

	gameQueue.Update(g.TestScope)

	// No opponent left, so no match forms and the stale entry is gone.
	g.Expect(provider.LaunchedCount()).To(BeZero())
	g.Expect(gameQueue.Contains(1)).To(BeTrue())
	g.Expect(gameQueue.Contains(2)).To(BeFalse())
}

func TestGameQueue_RemoveIsBenignWhenAlreadyGone(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{1: registryGroup(1, "p1")},
	}
	gameQueue := newDuelQueue(registry, &testsetup.StubGameServerProvider{})

	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], time.Now())).To(Succeed())
	g.Expect(gameQueue.Remove(g.TestScope, 1)).To(BeTrue())
	g.Expect(gameQueue.Remove(g.TestScope, 1)).To(BeFalse())
}

// reserveDeadlineProvider records whether Reserve was called with a context
// deadline in place.
type reserveDeadlineProvider struct {
	testsetup.StubGameServerProvider

	mu          sync.Mutex
	hadDeadline bool
}

func (p *reserveDeadlineProvider) Reserve(scope *envelope.Scope, gameType models.GameType) (matchmaker.GameServer, error) {
	p.mu.Lock()
	_, p.hadDeadline = scope.Ctx.Deadline()
	p.mu.Unlock()
	return p.StubGameServerProvider.Reserve(scope, gameType)
}

func (p *reserveDeadlineProvider) HadDeadline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hadDeadline
}

func TestGameQueue_ReserveRunsUnderTheConfiguredTimeout(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{
			1: registryGroup(1, "p1"),
			2: registryGroup(2, "p2"),
		},
	}
	provider := &reserveDeadlineProvider{}
	ruleset := duelRuleset()
	search := searcher.New(ruleset, defaultRatingConfig(), &testsetup.StubAccountStore{}, 0)
	gameQueue := NewGameQueue(ruleset, search, registry, provider, testsetup.NewMetrics(), 50*time.Millisecond, time.Second)

	now := time.Now()
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[1], now)).To(Succeed())
	g.Expect(gameQueue.Add(g.TestScope, registry.Groups[2], now)).To(Succeed())

	gameQueue.Update(g.TestScope)

	g.Expect(provider.HadDeadline()).To(BeTrue())
	g.Eventually(provider.LaunchedCount).Should(Equal(1))
}

func TestGameQueue_ConcurrentUpdatesConsumeEachGroupOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	groups := map[models.GroupID]models.RegistryGroup{}
	for i := int64(1); i <= 8; i++ {
		groups[models.GroupID(i)] = registryGroup(i, models.AccountID(fmt.Sprintf("p%d", i)))
	}
	registry := testsetup.StubGroupRegistry{Groups: groups}
	provider := &testsetup.StubGameServerProvider{}
	gameQueue := newDuelQueue(registry, provider)

	now := time.Now()
	for _, group := range groups {
		g.Expect(gameQueue.Add(g.TestScope, group, now)).To(Succeed())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gameQueue.Update(g.TestScope)
		}()
	}
	wg.Wait()

	// Eight solo groups can yield at most four 1v1 matches; every player
	// must appear in exactly one launched match.
	g.Eventually(func() int {
		seen := map[models.AccountID]int{}
		for _, match := range provider.LaunchedMatches() {
			for _, id := range match.TeamA.AccountIDs() {
				seen[id]++
			}
			for _, id := range match.TeamB.AccountIDs() {
				seen[id]++
			}
		}
		for _, count := range seen {
			if count != 1 {
				return -1
			}
		}
		return len(seen)
	}).Should(Equal(8 - 2*gameQueue.Len()))
}
