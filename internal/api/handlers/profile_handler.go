package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	middleware "github.com/markdave123-py/dreammend/internal/api/middlewares"
	"github.com/markdave123-py/dreammend/internal/models"
	"github.com/markdave123-py/dreammend/internal/services"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		writeDetail(w, http.StatusBadRequest, "token is required")
		return
	}

	if _, err := h.profiles.VerifyEmail(r.Context(), userID, token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email updated successfully"})
}

// UploadImage replaces the profile image from the multipart field profile_image.
func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+uploadSlack)
	file, header, err := r.FormFile("profile_image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, h.logger, services.ErrFileTooLarge)
			return
		}
		writeDetail(w, http.StatusBadRequest, "profile_image file is required")
		return
	}
	defer file.Close()

	// read one byte past the limit so oversize files are detected
	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "could not read file")
		return
	}

	if _, err := h.profiles.ReplaceImage(r.Context(), userID, header.Filename, data); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	}
	return userID, ok
}
