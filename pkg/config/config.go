// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package config

type Config struct {
	QueueTickMs                int    `env:"QUEUE_TICK_MS"                  envDefault:"1000"           envDocs:"interval between periodic queue update passes in milliseconds"`
	SearchMaxIteration         int    `env:"SEARCH_MAX_ITERATION"           envDefault:"0"              envDocs:"max DFS iterations per team partition search (0 means use default from code)"`
	ServerReserveTimeoutSecond int    `env:"SERVER_RESERVE_TIMEOUT_SECOND"  envDefault:"5"              envDocs:"timeout for reserving a game server for a found match"`
	MatchLaunchTimeoutSecond   int    `env:"MATCH_LAUNCH_TIMEOUT_SECOND"    envDefault:"30"             envDocs:"timeout for launching a match after a server is reserved"`
	PenaltyBaseSecond          int    `env:"PENALTY_BASE_SECOND"            envDefault:"300"            envDocs:"base queue-penalty duration for a first abandon"`
	PenaltyMaxSecond           int    `env:"PENALTY_MAX_SECOND"             envDefault:"3600"           envDocs:"upper bound for an escalated queue-penalty duration"`
	PenaltyStrikeMemorySecond  int    `env:"PENALTY_STRIKE_MEMORY_SECOND"   envDefault:"86400"          envDocs:"how long abandon strikes are remembered after a penalty expires"`
	MetricsAddr                string `env:"METRICS_ADDR"                   envDefault:":8081"          envDocs:"listen address for the metrics and health endpoints"`
	RedisAddr                  string `env:"REDIS_ADDR"                     envDefault:"localhost:6379" envDocs:"redis address for the account and match-history store"`
	RedisPassword              string `env:"REDIS_PASSWORD"                 envDefault:""               envDocs:"redis password, empty for none"`
	ZipkinEndpoint             string `env:"ZIPKIN_ENDPOINT"                envDefault:""               envDocs:"zipkin collector endpoint, empty disables trace export"`
	RulesetPath                string `env:"RULESET_PATH"                   envDefault:"rulesets.json"  envDocs:"path to the JSON file holding per-mode rulesets and rating config"`
}
