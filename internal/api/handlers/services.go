package handlers

import (
	"context"

	"github.com/markdave123-py/dreammend/internal/models"
	"github.com/markdave123-py/dreammend/internal/services"
)

// The handlers depend on these narrow views of the service layer.

type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyToken(ctx context.Context, token string) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	CheckCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, password, confirm string) error
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) (*models.User, error)
	VerifyEmail(ctx context.Context, userID int64, code string) (*models.User, error)
	ReplaceImage(ctx context.Context, userID int64, filename string, data []byte) (string, error)
}

type ChatService interface {
	StartConversation() (conversationID, sessionID string)
	SendMessage(ctx context.Context, in services.SendMessageInput) (*services.MessageResult, error)
	ExportHistory(ctx context.Context, conversationID string, userID int64) ([]models.ChatMessage, error)
}

type SummaryService interface {
	CreateSummary(ctx context.Context, in services.SummaryInput) (*models.Summary, error)
	SelectSummary(ctx context.Context, id int64) (*models.Summary, *services.MigrationResult, error)
}

type Migrator interface {
	Migrate(ctx context.Context, userID int64) (*services.MigrationResult, error)
}

type DreamEntryService interface {
	Create(ctx context.Context, userID int64, in services.DreamEntryInput) (*models.DreamEntry, error)
	List(ctx context.Context, userID int64) ([]models.DreamEntry, error)
	Update(ctx context.Context, userID, id int64, in services.DreamEntryInput) (*models.DreamEntry, error)
	Delete(ctx context.Context, userID, id int64) (*models.DreamEntry, error)
	Similar(ctx context.Context, userID, id int64, limit int) ([]models.DreamEntry, error)
}
