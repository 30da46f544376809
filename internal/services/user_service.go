package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/markdave123-py/dreammend/internal/core"
	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/core/mailer"
	"github.com/markdave123-py/dreammend/internal/models"
)

// UserService handles registration, login and password recovery.
type UserService struct {
	db      db.DbClient
	hasher  PasswordHasher
	tokens  TokenIssuer
	mailer  core.Mailer
	logger  *slog.Logger
	now     func() time.Time
	newCode func() (string, error)
}

func NewUserService(dbc db.DbClient, hasher PasswordHasher, tokens TokenIssuer, m core.Mailer, logger *slog.Logger) *UserService {
	return &UserService{
		db:      dbc,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  m,
		logger:  logger,
		now:     time.Now,
		newCode: newSixDigitCode,
	}
}

func (s *UserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, newError(ErrValidation, "Username, email and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.db.CreateUser(ctx, &models.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login returns an access token for valid credentials.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

// VerifyToken resolves an access token to an existing user.
func (s *UserService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, wrapError(ErrUnauthorized, "Token is invalid or expired", err)
	}
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Token is invalid or expired")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword mails a one-hour reset code to a registered address.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return newError(ErrNotFound, "User not found")
		}
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.db.CreatePasswordResetToken(ctx, &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     code,
		ExpiresAt: s.now().Add(codeTTL),
	}); err != nil {
		return err
	}

	subject, html, text := mailer.CodeEmail("Password Reset", code, "Use the code below to reset your password.")
	if err := s.mailer.Send(ctx, user.Email, subject, html, text); err != nil {
		s.logger.Error("reset email failed", slog.Int64("user_id", user.ID), slog.Any("err", err))
		return wrapError(ErrUpstream, "Failed to send reset email", err)
	}
	return nil
}

// CheckCode validates a reset code issued to email without consuming it.
func (s *UserService) CheckCode(ctx context.Context, email, code string) error {
	_, err := s.validResetToken(ctx, email, code)
	return err
}

// ResetPassword sets a new password and consumes the reset code.
func (s *UserService) ResetPassword(ctx context.Context, email, code, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if password == "" {
		return newError(ErrValidation, "Password cannot be empty")
	}

	token, err := s.validResetToken(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx db.Store) error {
		if err := tx.UpdateUserPassword(ctx, token.UserID, hash); err != nil {
			return err
		}
		return tx.MarkPasswordResetTokenUsed(ctx, token.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("password reset", slog.Int64("user_id", token.UserID))
	return nil
}

func (s *UserService) validResetToken(ctx context.Context, email, code string) (*models.PasswordResetToken, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrInvalidOrExpired
	}
	token, err := s.db.FindPasswordResetToken(ctx, email, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}
	if token.IsUsed || !s.now().Before(token.ExpiresAt) {
		return nil, ErrInvalidOrExpired
	}
	return token, nil
}
