package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/engine"
)

type Handler struct {
	engine *engine.Engine
	logger *logrus.Logger
}

func NewHandler(eng *engine.Engine, logger *logrus.Logger) *Handler {
	return &Handler{
		engine: eng,
		logger: logger,
	}
}

func (h *Handler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	id := h.engine.OpenNew()

	writeJSON(w, map[string]interface{}{
		"conversation_id": id,
	})

	h.logger.WithField("conversation_id", id).Debug("Opened conversation")
}

func (h *Handler) AgentMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Text == "" {
		http.Error(w, "Missing message text", http.StatusBadRequest)
		return
	}

	detection, err := h.engine.AgentMessage(r.Context(), conversationID, request.Text)
	if err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"conversation_id": conversationID,
		"detection":       detection,
	})

	h.logger.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"is_closure":      detection.IsClosure,
	}).Debug("Processed agent message")
}

func (h *Handler) CustomerMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Text == "" {
		http.Error(w, "Missing message text", http.StatusBadRequest)
		return
	}

	if err := h.engine.CustomerMessage(r.Context(), conversationID, request.Text); err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	snapshot, err := h.engine.Snapshot(conversationID)
	if err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, snapshot)
}

func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	if err := h.engine.Typing(conversationID); err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"conversation_id": conversationID,
		"success":         true,
	})
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	if err := h.engine.Revert(conversationID); err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"conversation_id": conversationID,
		"success":         true,
	})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	if err := h.engine.CloseManual(conversationID); err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"conversation_id": conversationID,
		"success":         true,
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]

	snapshot, err := h.engine.Snapshot(conversationID)
	if err != nil {
		h.writeEngineError(w, conversationID, err)
		return
	}

	writeJSON(w, snapshot)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "healthy",
	})
}

func (h *Handler) writeEngineError(w http.ResponseWriter, conversationID string, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownConversation):
		http.Error(w, "Conversation not found", http.StatusNotFound)
	case errors.Is(err, engine.ErrConversationClosed):
		http.Error(w, "Conversation is closed", http.StatusConflict)
	default:
		h.logger.WithError(err).WithField("conversation_id", conversationID).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
