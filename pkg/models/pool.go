// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"gopkg.in/typ.v4/sync2"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	Groups *sync2.Pool[[]MatchmakingGroup]
}

func NewPool() *Pool {
	return &Pool{
		Groups: &sync2.Pool[[]MatchmakingGroup]{
			New: func() []MatchmakingGroup {
				return make([]MatchmakingGroup, 0, 16)
			},
		},
	}
}
