// internal/server/chat.go
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"agri-officer/internal/common/metrics"
	"agri-officer/internal/orchestrator"
)

type chatRequest struct {
	History  []orchestrator.Turn `json:"history"`
	Message  string              `json:"message,omitempty"`
	Language string              `json:"language"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat answers a farmer's question. The client sends the prior
// conversation turns plus, optionally, a bare message that is appended as
// the newest user turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
		s.obs.RecordDuration(r.Context(), "chat", time.Since(start))
	}()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("bad_request").Inc()
		s.obs.RecordRequest(r.Context(), "chat", "bad_request")
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := req.History
	if msg := strings.TrimSpace(req.Message); msg != "" {
		history = append(history, orchestrator.Turn{Role: "user", Content: msg})
	}
	if len(history) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues("bad_request").Inc()
		s.obs.RecordRequest(r.Context(), "chat", "bad_request")
		s.writeError(w, http.StatusBadRequest, "history must contain at least one turn")
		return
	}

	reply, err := s.responder.Respond(r.Context(), history, req.Language)
	if err != nil {
		s.logger.Error("Chat request failed", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		s.obs.RecordRequest(r.Context(), "chat", "error")
		s.writeError(w, http.StatusInternalServerError, "Error communicating with the AI model.")
		return
	}

	metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	s.obs.RecordRequest(r.Context(), "chat", "ok")
	s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
