// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/backend"
	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ollama"
)

// ============================================================================
// QUERY DECODING
// ============================================================================

// ChatQuery is the decoded /api/chat query string.
type ChatQuery struct {
	Question  string
	Model     string
	SessionID string
	Persona   *model.Persona
	Params    *model.ParamSet
}

// QueryError reports a malformed query parameter.
type QueryError struct {
	Param string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// DecodeChatQuery parses the query parameters of /api/chat. Persona and
// params stay nil when absent or empty.
func DecodeChatQuery(values url.Values) (ChatQuery, error) {
	q := ChatQuery{
		Question:  values.Get("question"),
		Model:     values.Get("model"),
		SessionID: values.Get("sessionId"),
	}

	if raw := values.Get("personality"); raw != "" {
		p, err := model.ParsePersona(raw)
		if err != nil {
			return q, &QueryError{Param: "personality", Cause: err}
		}
		q.Persona = &p
	}

	if raw := values.Get("params"); raw != "" {
		p, err := model.ParseParams(raw)
		if err != nil {
			return q, &QueryError{Param: "params", Cause: err}
		}
		q.Params = &p
	}

	return q, nil
}

// Call converts the query into a runtime call, filling the default model.
func (q ChatQuery) Call(defaultModel string) backend.ChatCall {
	call := backend.ChatCall{
		Model:     q.Model,
		Question:  q.Question,
		Params:    q.Params,
		SessionID: q.SessionID,
	}
	if call.Model == "" {
		call.Model = defaultModel
	}
	if q.Persona != nil {
		call.Persona = *q.Persona
	}
	return call
}

// ============================================================================
// HANDLERS
// ============================================================================

// runtimeErrorClass names the kind of runtime failure for log filtering.
func runtimeErrorClass(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return ollama.ErrTypeNotRunning.String()
	case ollama.IsModelNotFound(err):
		return ollama.ErrTypeModelNotFound.String()
	case ollama.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return ollama.ErrTypeTimeout.String()
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "runtime"
	}
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, HealthBody)
}

// handleModels handles GET /api/models. The runtime's document is passed
// through unchanged.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	raw, err := s.backend.ListModels(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch models",
			zap.String("runtime", s.backend.Name()),
			zap.String("error_class", runtimeErrorClass(err)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   ModelsErrorReason,
			"details": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handleChat handles GET /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if values.Get("question") == "" {
		writeText(w, http.StatusOK, IdleChatBody)
		return
	}

	q, err := DecodeChatQuery(values)
	if err != nil {
		s.logger.Info("rejected chat query", zap.String("session_id", q.SessionID), zap.Error(err))
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	call := q.Call(s.DefaultModel())
	log := s.logger.With(
		zap.String("session_id", call.SessionID),
		zap.String("model", call.Model),
	)
	log.Debug("forwarding question",
		zap.Int("question_len", len(call.Question)),
		zap.Bool("persona", !call.Persona.IsEmpty()),
		zap.Bool("params", call.Params != nil),
	)

	answer, err := s.backend.Chat(r.Context(), call)
	s.stats.RecordChat(err != nil)
	if err != nil {
		log.Error("chat failed", zap.String("error_class", runtimeErrorClass(err)), zap.Error(err))
		writeText(w, http.StatusInternalServerError, ChatErrorPrefix+err.Error())
		return
	}

	writeText(w, http.StatusOK, answer)
}

// handleClear handles DELETE /api/chat/history and POST /api/clear. The
// relay holds no history, so this only records the request.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("history clear requested", zap.String("session_id", r.URL.Query().Get("sessionId")))
	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.Snapshot()
	snap.DefaultModel = s.DefaultModel()
	snap.Runtime = s.backend.Name()
	writeJSON(w, http.StatusOK, snap)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
