package handlers

import (
	"log/slog"
	"net/http"

	"github.com/markdave123-py/dreammend/internal/models"
	"github.com/markdave123-py/dreammend/internal/services"
)

type SummaryHandler struct {
	summaries SummaryService
	migrator  Migrator
	logger    *slog.Logger
}

func NewSummaryHandler(summaries SummaryService, migrator Migrator, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, migrator: migrator, logger: logger}
}

type summaryRequest struct {
	ConversationID string `json:"conversation_id"`
	SessionID      string `json:"session_id"`
	UserID         int64  `json:"user_id"`
	Title          string `json:"title"`
	Abstract       string `json:"abstract"`
	OriginalDream  string `json:"original_dream"`
	RewrittenDream string `json:"rewritten_dream"`
}

type selectResponse struct {
	*models.Summary
	Migration *services.MigrationResult `json:"migration,omitempty"`
}

func (h *SummaryHandler) CreateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, err := h.summaries.CreateSummary(r.Context(), services.SummaryInput{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		Fields: services.SummaryFields{
			Title:          &req.Title,
			Abstract:       &req.Abstract,
			OriginalDream:  &req.OriginalDream,
			RewrittenDream: &req.RewrittenDream,
		},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *SummaryHandler) SelectSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "summary_id")
	if !ok {
		return
	}

	summary, migration, err := h.summaries.SelectSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Summary: summary, Migration: migration})
}

// Migrate moves the caller's selected summaries into dream entries.
func (h *SummaryHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.migrator.Migrate(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
