package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/dreammend/internal/models"
	"github.com/markdave123-py/dreammend/internal/services"
)

type ChatHandler struct {
	chats  ChatService
	logger *slog.Logger
}

func NewChatHandler(chats ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, logger: logger}
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	IsFromUser     bool   `json:"is_from_user"`
}

type chatMessageResponse struct {
	ID             int64                     `json:"id"`
	ConversationID string                    `json:"conversation_id"`
	SessionID      string                    `json:"session_id"`
	UserID         int64                     `json:"user_id"`
	Message        string                    `json:"message"`
	IsFromUser     bool                      `json:"is_from_user"`
	Timestamp      time.Time                 `json:"timestamp"`
	ContinueChat   bool                      `json:"continueChat"`
	IsActive       bool                      `json:"is_active"`
	Username       string                    `json:"username"`
	Summary        *models.Summary           `json:"summary,omitempty"`
	Migration      *services.MigrationResult `json:"migration,omitempty"`
}

func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	conversationID, sessionID := h.chats.StartConversation()
	writeJSON(w, http.StatusOK, map[string]string{
		"conversation_id": conversationID,
		"session_id":      sessionID,
	})
}

// SendMessage runs one turn. The conversation id comes from the query string.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		conversationID = req.ConversationID
	}

	res, err := h.chats.SendMessage(r.Context(), services.SendMessageInput{
		UserID:         userID,
		ConversationID: conversationID,
		SessionID:      req.SessionID,
		Message:        req.Message,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	m := res.Message
	writeJSON(w, http.StatusOK, chatMessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SessionID:      m.SessionID,
		UserID:         m.UserID,
		Message:        m.Message,
		IsFromUser:     m.IsFromUser,
		Timestamp:      m.Timestamp,
		ContinueChat:   res.ContinueChat,
		IsActive:       m.IsActive,
		Username:       res.Username,
		Summary:        res.Summary,
		Migration:      res.Migration,
	})
}

// ExportChat serves the conversation transcript as a text attachment.
func (h *ChatHandler) ExportChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conversationID := chi.URLParam(r, "conversation_id")

	msgs, err := h.chats.ExportHistory(r.Context(), conversationID, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="chat_history_`+conversationID+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(services.FormatTranscript(msgs)))
}
