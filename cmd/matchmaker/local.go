// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"strconv"
	"sync"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/store/redisstore"
)

// inMemoryGroupRegistry is the built-in group registry, fed by the queue
// admission endpoint. A production deployment swaps in the social service.
type inMemoryGroupRegistry struct {
	mu     sync.RWMutex
	groups map[models.GroupID]models.RegistryGroup
}

func newInMemoryGroupRegistry() *inMemoryGroupRegistry {
	return &inMemoryGroupRegistry{groups: make(map[models.GroupID]models.RegistryGroup)}
}

func (r *inMemoryGroupRegistry) Put(group models.RegistryGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.GroupID] = group
}

func (r *inMemoryGroupRegistry) GetGroup(scope *envelope.Scope, groupID models.GroupID) (*models.RegistryGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[groupID]
	if !ok {
		return nil, nil
	}
	return &group, nil
}

// localServerProvider stands in for a fleet manager: every reservation
// succeeds immediately and a launch only records the match as active.
type localServerProvider struct {
	mu     sync.Mutex
	store  *redisstore.Store
	nextID int
}

type localServer struct {
	id string
}

func (s *localServer) ID() string { return s.id }

func (s *localServer) Release(scope *envelope.Scope) {
	scope.Log.WithField("server", s.id).Info("server released")
}

func (p *localServerProvider) Reserve(scope *envelope.Scope, gameType models.GameType) (matchmaker.GameServer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	return &localServer{id: "local-" + string(gameType) + "-" + strconv.Itoa(p.nextID)}, nil
}

func (p *localServerProvider) Launch(scope *envelope.Scope, server matchmaker.GameServer, matchID string, match models.Match) error {
	if err := p.store.MarkMatchActive(scope, matchID); err != nil {
		return err
	}
	scope.Log.WithField("server", server.ID()).
		WithField("matchID", matchID).
		WithField("teamA", match.TeamA.AccountIDs()).
		WithField("teamB", match.TeamB.AccountIDs()).
		Info("match hosted locally")
	return nil
}
