package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/markdave123-py/dreammend/internal/services"
)

type DreamEntryHandler struct {
	entries DreamEntryService
	logger  *slog.Logger
}

func NewDreamEntryHandler(entries DreamEntryService, logger *slog.Logger) *DreamEntryHandler {
	return &DreamEntryHandler{entries: entries, logger: logger}
}

func (h *DreamEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *DreamEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.DreamEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.entries.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *DreamEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "entry_id")
	if !ok {
		return
	}
	var in services.DreamEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.entries.Update(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *DreamEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "entry_id")
	if !ok {
		return
	}

	entry, err := h.entries.Delete(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Similar lists the caller's entries nearest to entry_id. ?limit= is optional.
func (h *DreamEntryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "entry_id")
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.entries.Similar(r.Context(), userID, id, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
