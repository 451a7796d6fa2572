// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import "time"

// GroupID identifies a registry group.
type GroupID int64

// RegistryGroup is the live group as the Group Registry knows it.
// The engine only reads membership and size.
type RegistryGroup struct {
	GroupID GroupID     `json:"group_id"`
	Members []AccountID `json:"members"`
	Leader  AccountID   `json:"leader"`
}

// MatchmakingGroup is a queue-time snapshot of a registry group, the unit
// the search algorithm operates on. It is immutable after construction,
// discarded after each search pass and rebuilt on the next one.
type MatchmakingGroup struct {
	GroupID   GroupID
	Members   []AccountID
	QueueTime time.Time
}

// NewMatchmakingGroup snapshots a registry group at queue time.
// The member list is copied so later registry mutation cannot leak in.
func NewMatchmakingGroup(group RegistryGroup, queueTime time.Time) MatchmakingGroup {
	members := make([]AccountID, len(group.Members))
	copy(members, group.Members)

	return MatchmakingGroup{
		GroupID:   group.GroupID,
		Members:   members,
		QueueTime: queueTime,
	}
}

// Size returns the number of players in the group.
func (g MatchmakingGroup) Size() int {
	return len(g.Members)
}

// WaitTime returns how long the group has been queued as of now.
func (g MatchmakingGroup) WaitTime(now time.Time) time.Duration {
	return now.Sub(g.QueueTime)
}
