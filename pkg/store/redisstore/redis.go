// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

// Package redisstore backs the account, match-history and active-match
// collaborators with redis. Rating state lives in one hash per account,
// match history in one capped list per account and game type.
package redisstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/models"
)

const (
	ratingFieldPrefix     = "rating:"
	confidenceFieldPrefix = "confidence:"
	lastRoleField         = "last_role"

	// historyLimit caps the per-player, per-mode history list; confidence
	// promotion only ever looks at recent play.
	historyLimit = 50
)

// Store implements the rating-store, match-history and active-match
// collaborators on one redis client.
type Store struct {
	client *redis.Client
}

// New builds a Store over an established client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func accountKey(id models.AccountID) string {
	return fmt.Sprintf("mm:account:%s", id)
}

func blockedKey(id models.AccountID) string {
	return fmt.Sprintf("mm:account:%s:blocked", id)
}

func historyKey(id models.AccountID, gameType models.GameType) string {
	return fmt.Sprintf("mm:history:%s:%s", id, gameType)
}

const activeMatchesKey = "mm:active_matches"

// GetAccount assembles the account snapshot from its rating hash and block
// set. An account redis has never seen comes back fresh, not as an error.
func (s *Store) GetAccount(scope *envelope.Scope, id models.AccountID) (*models.Account, error) {
	fields, err := s.client.HGetAll(scope.Ctx, accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", id, err)
	}

	account := &models.Account{ID: id}
	for field, raw := range fields {
		switch {
		case strings.HasPrefix(field, ratingFieldPrefix):
			key := models.RatingKey(strings.TrimPrefix(field, ratingFieldPrefix))
			value, parseErr := strconv.ParseFloat(raw, 64)
			if parseErr != nil {
				scope.Log.WithField("accountID", id).WithField("field", field).
					Warn("unparseable rating value in store, ignoring")
				continue
			}
			state := account.Ratings[key]
			state.Value = value
			account.SetRating(key, state)
		case strings.HasPrefix(field, confidenceFieldPrefix):
			key := models.RatingKey(strings.TrimPrefix(field, confidenceFieldPrefix))
			level, parseErr := strconv.Atoi(raw)
			if parseErr != nil {
				scope.Log.WithField("accountID", id).WithField("field", field).
					Warn("unparseable confidence level in store, ignoring")
				continue
			}
			state := account.Ratings[key]
			state.ConfidenceLevel = level
			account.SetRating(key, state)
		case field == lastRoleField:
			account.LastRole = models.Role(raw)
		}
	}

	blocked, err := s.client.SMembers(scope.Ctx, blockedKey(id)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read block list %s: %w", id, err)
	}
	for _, other := range blocked {
		account.Blocked = append(account.Blocked, models.AccountID(other))
	}

	return account, nil
}

// UpdateRatingComponent writes back the account's rating state for one key.
func (s *Store) UpdateRatingComponent(scope *envelope.Scope, account *models.Account, key models.RatingKey) error {
	state := account.Ratings[key]
	err := s.client.HSet(scope.Ctx, accountKey(account.ID),
		ratingFieldPrefix+string(key), strconv.FormatFloat(state.Value, 'f', -1, 64),
		confidenceFieldPrefix+string(key), strconv.Itoa(state.ConfidenceLevel),
	).Err()
	if err != nil {
		return fmt.Errorf("write rating %s/%s: %w", account.ID, key, err)
	}
	return nil
}

// FindRecentMatches returns the player's recorded matches of the game type,
// most recent first.
func (s *Store) FindRecentMatches(scope *envelope.Scope, id models.AccountID, gameType models.GameType) ([]models.MatchSummary, error) {
	entries, err := s.client.LRange(scope.Ctx, historyKey(id, gameType), 0, historyLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s/%s: %w", id, gameType, err)
	}

	summaries := make([]models.MatchSummary, 0, len(entries))
	for _, entry := range entries {
		var summary models.MatchSummary
		if unmarshalErr := json.Unmarshal([]byte(entry), &summary); unmarshalErr != nil {
			scope.Log.WithField("accountID", id).WithField("gameType", gameType).
				Warn("unparseable history entry in store, ignoring")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RecordMatch prepends the concluded match to each participant's history.
func (s *Store) RecordMatch(scope *envelope.Scope, game models.GameInfo, summary models.GameSummary) error {
	entry, err := json.Marshal(models.MatchSummary{
		MatchID:  game.MatchID,
		GameType: game.GameType,
		Winner:   summary.Winner,
		EndedAt:  summary.EndedAt,
	})
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, id := range game.Participants() {
		key := historyKey(id, game.GameType)
		pipe.LPush(scope.Ctx, key, entry)
		pipe.LTrim(scope.Ctx, key, 0, historyLimit-1)
	}
	if _, err := pipe.Exec(scope.Ctx); err != nil {
		return fmt.Errorf("record match %s: %w", game.MatchID, err)
	}
	return nil
}

// MarkMatchActive registers a launched match as in progress.
func (s *Store) MarkMatchActive(scope *envelope.Scope, matchID string) error {
	return s.client.SAdd(scope.Ctx, activeMatchesKey, matchID).Err()
}

// MarkMatchEnded clears a match from the in-progress set.
func (s *Store) MarkMatchEnded(scope *envelope.Scope, matchID string) error {
	return s.client.SRem(scope.Ctx, activeMatchesKey, matchID).Err()
}

// IsMatchActive reports whether the match is still in progress. A failed
// lookup counts as active so a penalty is never pardoned on a read error.
func (s *Store) IsMatchActive(scope *envelope.Scope, matchID string) bool {
	active, err := s.client.SIsMember(scope.Ctx, activeMatchesKey, matchID).Result()
	if err != nil {
		scope.Log.WithField("matchID", matchID).WithError(err).
			Warn("active-match lookup failed, assuming still active")
		return true
	}
	return active
}
