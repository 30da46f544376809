package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/dreammend/internal/core"
	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/core/mailer"
	"github.com/markdave123-py/dreammend/internal/models"
)

const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
}

type ProfileService struct {
	db      db.DbClient
	objects core.ObjectClient
	mailer  core.Mailer
	logger  *slog.Logger
	now     func() time.Time
	newCode func() (string, error)
}

// NewProfileService builds the service. objects may be nil when image storage
// is not configured.
func NewProfileService(dbc db.DbClient, objects core.ObjectClient, m core.Mailer, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		db:      dbc,
		objects: objects,
		mailer:  m,
		logger:  logger,
		now:     time.Now,
		newCode: newSixDigitCode,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "Profile not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the present fields of patch. A new email is not
// applied; a verification code is mailed to it instead.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) (*models.User, error) {
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		newEmail := strings.TrimSpace(*patch.Email)
		if newEmail != "" && newEmail != current.Email {
			if err := s.requestEmailChange(ctx, userID, newEmail); err != nil {
				return nil, err
			}
		}
		patch.Email = nil
	}

	updated, err := s.db.UpdateUserProfile(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "Profile not found")
		}
		return nil, err
	}
	return updated, nil
}

func (s *ProfileService) requestEmailChange(ctx context.Context, userID int64, newEmail string) error {
	_, err := s.db.GetUserByEmail(ctx, newEmail)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, db.ErrNotFound):
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.db.CreateEmailVerificationToken(ctx, &models.EmailVerificationToken{
		UserID:    userID,
		NewEmail:  newEmail,
		Token:     code,
		ExpiresAt: s.now().Add(codeTTL),
	}); err != nil {
		return err
	}

	subject, html, text := mailer.CodeEmail("Email Verification", code, "Use the code below to confirm your new email address.")
	if err := s.mailer.Send(ctx, newEmail, subject, html, text); err != nil {
		s.logger.Error("verification email failed", slog.Int64("user_id", userID), slog.Any("err", err))
		return wrapError(ErrUpstream, "Failed to send verification email", err)
	}
	s.logger.Info("email change pending", slog.Int64("user_id", userID))
	return nil
}

// VerifyEmail applies the pending email change identified by code.
func (s *ProfileService) VerifyEmail(ctx context.Context, userID int64, code string) (*models.User, error) {
	token, err := s.db.FindEmailVerificationToken(ctx, userID, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}
	if token.IsUsed || !s.now().Before(token.ExpiresAt) {
		return nil, ErrInvalidOrExpired
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx db.Store) error {
		if err := tx.UpdateUserEmail(ctx, userID, token.NewEmail); err != nil {
			return err
		}
		return tx.MarkEmailVerificationTokenUsed(ctx, token.ID)
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("verify email: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// ReplaceImage stores a new profile image and removes the previous one.
func (s *ProfileService) ReplaceImage(ctx context.Context, userID int64, filename string, data []byte) (string, error) {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i+1:])
	}
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return "", ErrInvalidFileType
	}
	if len(data) > MaxImageSize {
		return "", ErrFileTooLarge
	}
	if s.objects == nil {
		return "", newError(ErrUpstream, "Image storage is not configured")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("profile_images/%d_%s.%s", userID, uuid.NewString(), ext)
	url, err := s.objects.UploadFile(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", wrapError(ErrUpstream, "Failed to upload image", err)
	}

	if err := s.db.UpdateUserProfileImage(ctx, userID, url); err != nil {
		if delErr := s.objects.DeleteFile(ctx, url); delErr != nil {
			s.logger.Warn("orphaned profile image", slog.String("url", url), slog.Any("err", delErr))
		}
		return "", err
	}

	if old := user.ProfileImageURL; old != nil && *old != "" {
		if err := s.objects.DeleteFile(ctx, *old); err != nil {
			s.logger.Warn("previous profile image not deleted", slog.String("url", *old), slog.Any("err", err))
		}
	}
	return url, nil
}
