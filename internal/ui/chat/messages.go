// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/gossip-ai/gossip/internal/model"
)

// =============================================================================
// RELAY MESSAGES
// =============================================================================

// AnswerMsg carries the reply to a question. Err is the relay failure when
// the reply is the apology.
type AnswerMsg struct {
	Reply model.Message
	Err   error
}

// HealthMsg reports a /health check. Periodic checks schedule the next one.
type HealthMsg struct {
	Connected bool
	Periodic  bool
}

// ModelsMsg carries the result of model discovery. Show asks the view to
// list the models as a note.
type ModelsMsg struct {
	Models []model.ModelDescriptor
	Err    error
	Show   bool
}

// HistoryClearedMsg reports that the transcript was cleared.
type HistoryClearedMsg struct {
	Err error

	// PersonaCleared is set when the clear followed removing the persona.
	PersonaCleared bool
}

// =============================================================================
// TIMER MESSAGES
// =============================================================================

// HealthTickMsg schedules the next health check.
type HealthTickMsg struct {
	Time time.Time
}

// RevealTickMsg advances every revealing reply by one character.
type RevealTickMsg struct {
	Time time.Time
}

// ClearNoticeMsg removes a status bar notice. Seq guards against clearing
// a newer notice.
type ClearNoticeMsg struct {
	Seq int
}
