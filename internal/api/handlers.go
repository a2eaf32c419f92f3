package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/askdoc/askdoc/internal/chat"
	"github.com/askdoc/askdoc/internal/log"
)

// maxRequestBody caps chat/clear request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// handler holds the dependencies shared by all endpoints.
type handler struct {
	orchestrator Orchestrator
	logger       *slog.Logger
	version      string
}

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the reply of POST /chat. SessionID always echoes the
// resolved session so callers without one can reuse it on the next turn.
type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// clearRequest is the body of POST /clear.
type clearRequest struct {
	SessionID string `json:"session_id"`
}

// clearResponse is the reply of POST /clear. Cleared is false when the
// session did not exist; that is not an error.
type clearResponse struct {
	Cleared   bool   `json:"cleared"`
	SessionID string `json:"session_id"`
}

// healthResponse is the reply of GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// chat runs one conversational turn.
func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.orchestrator.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("chat request failed",
			"session_id", log.TruncateID(req.SessionID),
			"retrieval_error", errors.Is(err, chat.ErrRetrieval),
			"model_error", errors.Is(err, chat.ErrModel),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    resp.Answer,
		SessionID: resp.SessionID,
	})
}

// clear drops a session's history.
func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	cleared := h.orchestrator.Clear(req.SessionID)
	writeJSON(w, http.StatusOK, clearResponse{
		Cleared:   cleared,
		SessionID: req.SessionID,
	})
}

// healthz is a simple liveness probe for Docker/Kubernetes.
func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version})
}
