// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/matchmaker/searcher"
	"github.com/questline/core-matchmaker/pkg/metrics"
	"github.com/questline/core-matchmaker/pkg/models"
)

// QueueService is the queue-admission surface and the periodic driver over
// every configured game type's queue.
type QueueService struct {
	queues    map[models.GameType]*GameQueue
	penalties *PenaltyManager
	active    matchmaker.ActiveMatches
}

// NewQueueService builds one GameQueue per ruleset, each with the search
// strategy the ruleset selects.
func NewQueueService(
	rulesets []models.Ruleset,
	ratingCfg models.RatingConfig,
	registry matchmaker.GroupRegistry,
	accounts matchmaker.AccountStore,
	servers matchmaker.GameServerProvider,
	active matchmaker.ActiveMatches,
	penalties *PenaltyManager,
	engineMetrics metrics.EngineMetrics,
	searchMaxIteration int,
	reserveTimeout time.Duration,
	launchTimeout time.Duration,
) (*QueueService, error) {
	service := &QueueService{
		queues:    make(map[models.GameType]*GameQueue, len(rulesets)),
		penalties: penalties,
		active:    active,
	}
	for _, ruleset := range rulesets {
		if _, exists := service.queues[ruleset.GameType]; exists {
			return nil, fmt.Errorf("%w: duplicate ruleset for %q", models.ErrInvalidRuleset, ruleset.GameType)
		}
		search := searcher.New(ruleset, ratingCfg, accounts, searchMaxIteration)
		service.queues[ruleset.GameType] = NewGameQueue(ruleset, search, registry, servers, engineMetrics, reserveTimeout, launchTimeout)
	}
	return service, nil
}

// AddGroupToQueue admits a group after checking every member's queue
// penalty. A penalty whose abandoned match is no longer in progress is
// pardoned on the spot and does not block admission.
func (s *QueueService) AddGroupToQueue(scope *envelope.Scope, gameType models.GameType, group models.RegistryGroup) error {
	gameQueue, ok := s.queues[gameType]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownGameType, gameType)
	}

	now := Now()
	for _, accountID := range group.Members {
		penalty, blocked := s.penalties.ActivePenalty(gameType, accountID, now)
		if !blocked {
			continue
		}
		if penalty.MatchID != "" && !s.active.IsMatchActive(scope, penalty.MatchID) {
			s.penalties.Pardon(scope, gameType, accountID)
			continue
		}
		scope.Log.WithField("groupID", group.GroupID).
			WithField("accountID", accountID).
			WithField("blockUntil", penalty.BlockUntil).
			Info("group admission blocked by queue penalty")
		return fmt.Errorf("%w: account %s blocked until %s", models.ErrPenaltyActive, accountID, penalty.BlockUntil.Format(time.RFC3339))
	}

	return gameQueue.Add(scope, group, now)
}

// RemoveGroupFromQueue dequeues the group from the game type's queue,
// reporting whether it was present.
func (s *QueueService) RemoveGroupFromQueue(scope *envelope.Scope, gameType models.GameType, groupID models.GroupID) bool {
	gameQueue, ok := s.queues[gameType]
	if !ok {
		return false
	}
	return gameQueue.Remove(scope, groupID)
}

// IsQueued reports whether the group currently waits in the game type's queue.
func (s *QueueService) IsQueued(gameType models.GameType, groupID models.GroupID) bool {
	gameQueue, ok := s.queues[gameType]
	if !ok {
		return false
	}
	return gameQueue.Contains(groupID)
}

// ReportAbandon issues an escalating queue penalty against a player who left
// a started match.
func (s *QueueService) ReportAbandon(scope *envelope.Scope, gameType models.GameType, accountID models.AccountID, matchID string) (models.QueuePenalty, error) {
	if _, ok := s.queues[gameType]; !ok {
		return models.QueuePenalty{}, fmt.Errorf("%w: %q", models.ErrUnknownGameType, gameType)
	}
	return s.penalties.IssuePenalty(scope, gameType, accountID, matchID, Now()), nil
}

// Update runs one matchmaking pass over every queue.
func (s *QueueService) Update(scope *envelope.Scope) {
	for _, gameQueue := range s.queues {
		gameQueue.Update(scope)
	}
}

// Run drives periodic update passes until the context is cancelled. An
// in-flight pass finishes; no new pass starts after cancellation.
func (s *QueueService) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scope := envelope.NewRootScope(ctx, "QueueService.Update", "")
			s.Update(scope)
			scope.Finish()
		}
	}
}
