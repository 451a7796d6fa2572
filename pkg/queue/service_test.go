// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/testsetup"
)

func newTestService(registry testsetup.StubGroupRegistry, provider *testsetup.StubGameServerProvider, active testsetup.StubActiveMatches) *QueueService {
	service, err := NewQueueService(
		[]models.Ruleset{duelRuleset()},
		defaultRatingConfig(),
		registry,
		&testsetup.StubAccountStore{},
		provider,
		active,
		newTestPenaltyManager(),
		testsetup.NewMetrics(),
		0,
		time.Second,
		time.Second,
	)
	if err != nil {
		panic(err)
	}
	return service
}

func TestQueueService_RejectsUnknownGameType(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	service := newTestService(testsetup.StubGroupRegistry{}, &testsetup.StubGameServerProvider{}, testsetup.StubActiveMatches{})

	err := service.AddGroupToQueue(g.TestScope, "no-such-mode", registryGroup(1, "p1"))

	g.Expect(err).To(MatchError(models.ErrUnknownGameType))
}

func TestQueueService_PenaltyBlocksAdmission(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	active := testsetup.StubActiveMatches{Active: map[string]bool{"m1": true}}
	service := newTestService(testsetup.StubGroupRegistry{}, &testsetup.StubGameServerProvider{}, active)

	_, err := service.ReportAbandon(g.TestScope, "duel", "p1", "m1")
	g.Expect(err).ToNot(HaveOccurred())

	// p1's abandoned match is still running, so the whole group is blocked.
	err = service.AddGroupToQueue(g.TestScope, "duel", registryGroup(1, "p1", "p2"))
	g.Expect(err).To(MatchError(models.ErrPenaltyActive))
	g.Expect(service.IsQueued("duel", 1)).To(BeFalse())
}

func TestQueueService_PenaltyIsPardonedOnceTheMatchEnds(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	active := testsetup.StubActiveMatches{Active: map[string]bool{}}
	service := newTestService(testsetup.StubGroupRegistry{}, &testsetup.StubGameServerProvider{}, active)

	_, err := service.ReportAbandon(g.TestScope, "duel", "p1", "m1")
	g.Expect(err).ToNot(HaveOccurred())

	err = service.AddGroupToQueue(g.TestScope, "duel", registryGroup(1, "p1"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(service.IsQueued("duel", 1)).To(BeTrue())
}

func TestQueueService_RemoveGroupFromQueue(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	service := newTestService(testsetup.StubGroupRegistry{}, &testsetup.StubGameServerProvider{}, testsetup.StubActiveMatches{})

	g.Expect(service.AddGroupToQueue(g.TestScope, "duel", registryGroup(1, "p1"))).To(Succeed())
	g.Expect(service.RemoveGroupFromQueue(g.TestScope, "duel", 1)).To(BeTrue())
	g.Expect(service.RemoveGroupFromQueue(g.TestScope, "duel", 1)).To(BeFalse())
	g.Expect(service.IsQueued("duel", 1)).To(BeFalse())
}

func TestQueueService_PeriodicDriverFormsMatchesUntilCancelled(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	registry := testsetup.StubGroupRegistry{
		Groups: map[models.GroupID]models.RegistryGroup{
			1: registryGroup(1, "p1"),
			2: registryGroup(2, "p2"),
		},
	}
	provider := &testsetup.StubGameServerProvider{}
	service := newTestService(registry, provider, testsetup.StubActiveMatches{})

	g.Expect(service.AddGroupToQueue(g.TestScope, "duel", registry.Groups[1])).To(Succeed())
	g.Expect(service.AddGroupToQueue(g.TestScope, "duel", registry.Groups[2])).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		service.Run(ctx, 5*time.Millisecond)
	}()

	g.Eventually(provider.LaunchedCount).Should(Equal(1))
	cancel()
	g.Eventually(done).Should(BeClosed())
}
