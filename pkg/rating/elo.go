// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package rating implements the Elo rating engine: win-probability
// prediction, post-game pot distribution weighted by confidence, and
// confidence-level transitions driven by recency and frequency of play.
package rating

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/questline/core-matchmaker/pkg/common"
	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/matchmaker"
	"github.com/questline/core-matchmaker/pkg/mathutil"
	"github.com/questline/core-matchmaker/pkg/metrics"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/utils"
)

// Now is overridable for tests.
var Now = time.Now

// WinProbability is the logistic prediction that a team rated teamElo beats
// a team rated opponentElo.
func WinProbability(teamElo, opponentElo float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponentElo-teamElo)/400.0))
}

// Elo applies game outcomes to persisted rating state. All rating
// read-modify-write cycles run under one global critical section: two games
// ending close together can share participants, and their updates must not
// interleave.
type Elo struct {
	mu sync.Mutex

	cfg      models.RatingConfig
	accounts matchmaker.AccountStore
	history  matchmaker.MatchHistory
	metrics  metrics.EngineMetrics
}

// NewElo builds the rating engine.
func NewElo(cfg models.RatingConfig, accounts matchmaker.AccountStore, history matchmaker.MatchHistory, engineMetrics metrics.EngineMetrics) *Elo {
	return &Elo{
		cfg:      cfg,
		accounts: accounts,
		history:  history,
		metrics:  engineMetrics,
	}
}

// OnGameEnded settles a concluded game against the rating store. It is a
// no-op for non-versus games and for games without a decisive winner.
// Confidence levels move first and are persisted; the rating pot is then
// computed from the settled levels and distributed per player.
func (e *Elo) OnGameEnded(scope *envelope.Scope, game models.GameInfo, summary models.GameSummary, key models.RatingKey) error {
	if !game.IsVersus() {
		scope.Log.WithField("matchID", game.MatchID).
			Info("game was not a versus mode, ratings unchanged")
		return nil
	}
	if !summary.IsDecisive() {
		scope.Log.WithField("matchID", game.MatchID).
			Info("game ended without a winner, ratings unchanged")
		return nil
	}
	if utils.HasCommonElement(game.TeamA, game.TeamB) {
		scope.Log.WithField("matchID", game.MatchID).
			Warn("game rosters overlap, ratings unchanged")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := Now()
	accounts := make(map[models.AccountID]*models.Account, len(game.TeamA)+len(game.TeamB))
	for _, id := range game.Participants() {
		accounts[id] = e.loadAccount(scope, id)
	}

	for _, id := range game.Participants() {
		if err := e.settleConfidence(scope, accounts[id], game, key, now); err != nil {
			return fmt.Errorf("settle confidence for %s: %w", id, err)
		}
	}

	if err := e.distributePot(scope, accounts, game, summary, key); err != nil {
		return err
	}

	return nil
}

// loadAccount fetches the persisted snapshot, degrading a failed lookup to a
// fresh baseline account so one missing row cannot void a whole game's
// settlement.
func (e *Elo) loadAccount(scope *envelope.Scope, id models.AccountID) *models.Account {
	account, err := e.accounts.GetAccount(scope, id)
	if err != nil || account == nil {
		if err != nil {
			scope.Log.WithField("accountID", id).WithError(err).
				Warn("account lookup failed, settling from baseline")
		}
		return &models.Account{ID: id}
	}
	return account
}

// settleConfidence applies exactly one of decay, promotion or no-op to the
// player's confidence level and persists the result. The concluded game
// itself is not yet in history, so the lookup reflects only prior play.
func (e *Elo) settleConfidence(scope *envelope.Scope, account *models.Account, game models.GameInfo, key models.RatingKey, now time.Time) error {
	state := account.Rating(key, e.cfg.BaselineRating)
	level := state.ConfidenceLevel

	past, err := e.history.FindRecentMatches(scope, account.ID, game.GameType)
	if err != nil {
		scope.Log.WithField("accountID", account.ID).WithError(err).
			Warn("match history lookup failed, confidence level held")
		return nil
	}

	switch {
	case len(past) == 0:
		// First recorded game of this mode.
		level = 0
	case e.decayFor(now.Sub(past[0].EndedAt)) > 0:
		level = mathutil.Max(level-e.decayFor(now.Sub(past[0].EndedAt)), 0)
	case level < e.cfg.MaxConfidenceLevel():
		threshold := e.cfg.PromotionCountForLevel(level)
		if threshold > 0 && e.countFresh(past, now) >= threshold {
			level++
		}
	}

	if level == state.ConfidenceLevel && len(past) > 0 {
		return nil
	}

	state.ConfidenceLevel = level
	account.SetRating(key, state)
	return e.accounts.UpdateRatingComponent(scope, account, key)
}

// decayFor returns the confidence decay for time spent away from the mode,
// 0 when no retention rule has tripped yet. Rules are ordered longest first.
func (e *Elo) decayFor(elapsed time.Duration) int {
	for _, rule := range e.cfg.RetentionRules {
		if elapsed >= time.Duration(rule.MinElapsedSecond)*time.Second {
			return rule.Decay
		}
	}
	return 0
}

// countFresh counts past matches still inside the freshest retention window.
func (e *Elo) countFresh(past []models.MatchSummary, now time.Time) int {
	window := e.cfg.FreshWindow()
	var n int
	for _, summary := range past {
		if now.Sub(summary.EndedAt) <= window {
			n++
		}
	}
	return n
}

// distributePot computes the shared pot from the settled confidence levels,
// splits it between the teams by predicted versus actual outcome, and hands
// each player a share proportional to their own confidence factor.
func (e *Elo) distributePot(scope *envelope.Scope, accounts map[models.AccountID]*models.Account, game models.GameInfo, summary models.GameSummary, key models.RatingKey) error {
	meanA, factorsA := e.teamAggregates(accounts, game.TeamA, key)
	meanB, factorsB := e.teamAggregates(accounts, game.TeamB, key)

	predictedA := WinProbability(meanA, meanB)
	pot := e.cfg.BasePot * (mean(factorsA) + mean(factorsB)) / 2

	actualA := 0.0
	if summary.Winner == models.SideTeamA {
		actualA = 1.0
	}
	teamDeltaA := pot * (actualA - predictedA)

	scope.Log.WithField("matchID", game.MatchID).
		WithField("predictedA", predictedA).
		WithField("pot", pot).
		WithField("teamDeltaA", teamDeltaA).
		WithField("rosters", common.LogJSONFormatter(game)).
		Info("settling game outcome")

	if err := e.applyTeamDelta(scope, accounts, game, game.TeamA, factorsA, teamDeltaA, key); err != nil {
		return err
	}
	return e.applyTeamDelta(scope, accounts, game, game.TeamB, factorsB, -teamDeltaA, key)
}

// applyTeamDelta moves each team member's rating by their share of the team
// delta and persists the new value.
func (e *Elo) applyTeamDelta(scope *envelope.Scope, accounts map[models.AccountID]*models.Account, game models.GameInfo, team []models.AccountID, factors []float64, teamDelta float64, key models.RatingKey) error {
	avgFactor := mean(factors)
	for i, id := range team {
		account := accounts[id]
		state := account.Rating(key, e.cfg.BaselineRating)

		delta := teamDelta
		if avgFactor > 0 {
			delta = teamDelta * factors[i] / avgFactor
		}
		state.Value += delta
		account.SetRating(key, state)

		if err := e.accounts.UpdateRatingComponent(scope, account, key); err != nil {
			return fmt.Errorf("persist rating for %s: %w", id, err)
		}
		if e.metrics != nil {
			e.metrics.AddRatingDelta(string(game.GameType), delta)
		}
	}
	return nil
}

// teamAggregates returns the team's mean rating and its members' confidence
// factors, aligned with the team slice.
func (e *Elo) teamAggregates(accounts map[models.AccountID]*models.Account, team []models.AccountID, key models.RatingKey) (float64, []float64) {
	ratings := make([]float64, 0, len(team))
	factors := make([]float64, 0, len(team))
	for _, id := range team {
		state := accounts[id].Rating(key, e.cfg.BaselineRating)
		ratings = append(ratings, state.Value)
		factors = append(factors, e.cfg.FactorForLevel(state.ConfidenceLevel))
	}
	return mean(ratings), factors
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
