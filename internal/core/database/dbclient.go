package db

import (
	"context"

	"github.com/markdave123-py/dreammend/internal/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, patch models.ProfilePatch) (*models.User, error)
	UpdateUserEmail(ctx context.Context, id int64, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserProfileImage(ctx context.Context, id int64, url string) error
}

type ChatStore interface {
	InsertChatMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error)
	// LatestChatMessage returns ErrNotFound for an empty conversation.
	LatestChatMessage(ctx context.Context, conversationID string) (*models.ChatMessage, error)
	ListChatMessages(ctx context.Context, conversationID string, userID int64) ([]models.ChatMessage, error)
}

type SummaryStore interface {
	InsertSummary(ctx context.Context, s *models.Summary) (*models.Summary, error)
	GetSummary(ctx context.Context, id int64) (*models.Summary, error)
	UnselectSummaries(ctx context.Context, conversationID string) error
	MarkSummarySelected(ctx context.Context, id int64) (*models.Summary, error)
	ListSelectedSummaries(ctx context.Context, userID int64) ([]models.Summary, error)
}

type DreamEntryStore interface {
	// InsertDreamEntry returns ErrDuplicate when the session already has an entry.
	InsertDreamEntry(ctx context.Context, e *models.DreamEntry) (*models.DreamEntry, error)
	DreamEntryExistsForSession(ctx context.Context, sessionID string) (bool, error)
	ListDreamEntries(ctx context.Context, userID int64) ([]models.DreamEntry, error)
	GetDreamEntry(ctx context.Context, userID, id int64) (*models.DreamEntry, error)
	UpdateDreamEntry(ctx context.Context, e *models.DreamEntry) (*models.DreamEntry, error)
	DeleteDreamEntry(ctx context.Context, userID, id int64) (*models.DreamEntry, error)
	SetDreamEntryEmbedding(ctx context.Context, id int64, embedding []float32) error
	SimilarDreamEntries(ctx context.Context, userID, id int64, limit int) ([]models.DreamEntry, error)
}

type TokenStore interface {
	CreatePasswordResetToken(ctx context.Context, t *models.PasswordResetToken) error
	// FindPasswordResetToken returns the newest unused token with this code
	// issued to the account registered under email.
	FindPasswordResetToken(ctx context.Context, email, token string) (*models.PasswordResetToken, error)
	MarkPasswordResetTokenUsed(ctx context.Context, id int64) error

	CreateEmailVerificationToken(ctx context.Context, t *models.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, userID int64, token string) (*models.EmailVerificationToken, error)
	MarkEmailVerificationTokenUsed(ctx context.Context, id int64) error
}

// Store is every query, bound either to the pool or to a transaction.
type Store interface {
	UserStore
	ChatStore
	SummaryStore
	DreamEntryStore
	TokenStore
}

// DbClient defines all persistence operations the services need.
type DbClient interface {
	Store
	// WithTx runs fn against a transactional Store; fn's error rolls back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
