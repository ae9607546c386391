// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync/atomic"
	"time"
)

// ServerStats tracks relay usage. Safe for concurrent use.
type ServerStats struct {
	totalRequests atomic.Int64
	chatRequests  atomic.Int64
	chatFailures  atomic.Int64
	errors        atomic.Int64
	startTime     time.Time
}

// NewServerStats creates a new ServerStats starting now.
func NewServerStats() *ServerStats {
	return &ServerStats{startTime: time.Now()}
}

// RecordRequest counts a finished request. Status codes of 500 and above
// count as errors.
func (s *ServerStats) RecordRequest(status int) {
	s.totalRequests.Add(1)
	if status >= 500 {
		s.errors.Add(1)
	}
}

// RecordChat counts a question forwarded to the runtime.
func (s *ServerStats) RecordChat(failed bool) {
	s.chatRequests.Add(1)
	if failed {
		s.chatFailures.Add(1)
	}
}

// Uptime returns how long the stats have been collected.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// StatsSnapshot is the /api/stats response body.
type StatsSnapshot struct {
	TotalRequests int64  `json:"total_requests"`
	ChatRequests  int64  `json:"chat_requests"`
	ChatFailures  int64  `json:"chat_failures"`
	Errors        int64  `json:"errors"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DefaultModel  string `json:"default_model"`
	Runtime       string `json:"runtime"`
}

// Snapshot returns the current counters.
func (s *ServerStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests: s.totalRequests.Load(),
		ChatRequests:  s.chatRequests.Load(),
		ChatFailures:  s.chatFailures.Load(),
		Errors:        s.errors.Load(),
		UptimeSeconds: int64(s.Uptime().Seconds()),
	}
}
