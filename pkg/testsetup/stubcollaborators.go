// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"fmt"
	"sync"
	"time"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/models"
)

// StubGroupRegistry serves groups from a fixed map. Unknown ids return
// (nil, nil), matching the live registry's behavior for vanished groups.
type StubGroupRegistry struct {
	Groups map[models.GroupID]models.RegistryGroup
}

func (s StubGroupRegistry) GetGroup(scope *envelope.Scope, groupID models.GroupID) (*models.RegistryGroup, error) {
	group, ok := s.Groups[groupID]
	if !ok {
		return nil, nil
	}
	return &group, nil
}

// StubAccountStore keeps accounts in memory and records every rating write.
type StubAccountStore struct {
	mu       sync.Mutex
	Accounts map[models.AccountID]*models.Account
	Writes   []models.AccountID
	FailGets bool
}

func (s *StubAccountStore) GetAccount(scope *envelope.Scope, id models.AccountID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGets {
		return nil, fmt.Errorf("account store unavailable")
	}
	if account, ok := s.Accounts[id]; ok {
		return account, nil
	}
	return &models.Account{ID: id}, nil
}

func (s *StubAccountStore) UpdateRatingComponent(scope *envelope.Scope, account *models.Account, key models.RatingKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Accounts == nil {
		s.Accounts = make(map[models.AccountID]*models.Account)
	}
	s.Accounts[account.ID] = account
	s.Writes = append(s.Writes, account.ID)
	return nil
}

// StubMatchHistory serves fixed per-account history, most recent first.
type StubMatchHistory struct {
	History map[models.AccountID][]models.MatchSummary
}

func (s StubMatchHistory) FindRecentMatches(scope *envelope.Scope, id models.AccountID, gameType models.GameType) ([]models.MatchSummary, error) {
	return s.History[id], nil
}

// StubGameServer is a reserved server that records its release.
type StubGameServer struct {
	mu       sync.Mutex
	ServerID string
	released bool
}

func (s *StubGameServer) ID() string { return s.ServerID }

func (s *StubGameServer) Release(scope *envelope.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func (s *StubGameServer) IsReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// StubGameServerProvider hands out stub servers and records launches.
// ReserveErr simulates server starvation; LaunchErr a failed load-out.
type StubGameServerProvider struct {
	mu          sync.Mutex
	ReserveErr  error
	LaunchErr   error
	LaunchDelay time.Duration
	Launched    []models.Match
	Servers     []*StubGameServer
}

func (s *StubGameServerProvider) Reserve(scope *envelope.Scope, gameType models.GameType) (matchmaker.GameServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReserveErr != nil {
		return nil, s.ReserveErr
	}
	server := &StubGameServer{ServerID: fmt.Sprintf("server-%d", len(s.Servers)+1)}
	s.Servers = append(s.Servers, server)
	return server, nil
}

func (s *StubGameServerProvider) Launch(scope *envelope.Scope, server matchmaker.GameServer, matchID string, match models.Match) error {
	if s.LaunchDelay > 0 {
		time.Sleep(s.LaunchDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LaunchErr != nil {
		return s.LaunchErr
	}
	s.Launched = append(s.Launched, match)
	return nil
}

func (s *StubGameServerProvider) LaunchedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Launched)
}

func (s *StubGameServerProvider) LaunchedMatches() []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Match(nil), s.Launched...)
}

func (s *StubGameServerProvider) ReservedServers() []*StubGameServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*StubGameServer(nil), s.Servers...)
}

// StubActiveMatches reports matches active from a fixed set.
type StubActiveMatches struct {
	Active map[string]bool
}

func (s StubActiveMatches) IsMatchActive(scope *envelope.Scope, matchID string) bool {
	return s.Active[matchID]
}
