package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/dreammend/internal/core"
	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/metrics"
	"github.com/markdave123-py/dreammend/internal/models"
)

type ChatService struct {
	db        db.DbClient
	responder core.Responder
	summaries *SummaryService
	migrator  *MigrationService
	limiter   RateLimiter
	logger    *slog.Logger
}

func NewChatService(dbc db.DbClient, responder core.Responder, summaries *SummaryService, migrator *MigrationService, limiter RateLimiter, logger *slog.Logger) *ChatService {
	return &ChatService{
		db:        dbc,
		responder: responder,
		summaries: summaries,
		migrator:  migrator,
		limiter:   limiter,
		logger:    logger,
	}
}

// StartConversation mints a fresh conversation and session id. Nothing is stored.
func (s *ChatService) StartConversation() (conversationID, sessionID string) {
	return uuid.NewString(), uuid.NewString()
}

// AppendMessage records one turn. It fails with ErrConversationClosed when the
// latest message of the conversation is inactive.
func (s *ChatService) AppendMessage(ctx context.Context, conversationID, sessionID string, userID int64, text string, fromUser, active bool) (*models.ChatMessage, error) {
	latest, err := s.db.LatestChatMessage(ctx, conversationID)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return nil, err
	case !latest.IsActive:
		return nil, ErrConversationClosed
	}

	return s.db.InsertChatMessage(ctx, &models.ChatMessage{
		UserID:         userID,
		ConversationID: conversationID,
		SessionID:      sessionID,
		Message:        text,
		IsFromUser:     fromUser,
		IsActive:       active,
	})
}

// ExportHistory returns the user's messages in the conversation, oldest first.
func (s *ChatService) ExportHistory(ctx context.Context, conversationID string, userID int64) ([]models.ChatMessage, error) {
	msgs, err := s.db.ListChatMessages(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, newError(ErrNotFound, "No messages found for the given conversation ID.")
	}
	return msgs, nil
}

// FormatTranscript renders messages as "[timestamp] You|AI: text" lines.
func FormatTranscript(msgs []models.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		who := "AI"
		if m.IsFromUser {
			who = "You"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.UTC().Format("2006-01-02 15:04:05"), who, m.Message)
	}
	return b.String()
}

type SendMessageInput struct {
	UserID         int64
	ConversationID string
	SessionID      string
	Message        string
}

// MessageResult is the AI turn produced for a user message.
type MessageResult struct {
	Message      *models.ChatMessage
	Username     string
	ContinueChat bool
	Summary      *models.Summary
	Migration    *MigrationResult
}

// SendMessage runs one conversation turn: record the user message, ask the
// responder, persist any complete summary and migrate it, then record the reply.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*MessageResult, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return nil, newError(ErrValidation, "Conversation ID cannot be null")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, newError(ErrValidation, "Session ID cannot be null")
	}

	if err := s.checkRate(ctx, in.UserID); err != nil {
		metrics.MessagesTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}

	user, err := s.db.GetUserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, err
	}

	history, err := s.db.ListChatMessages(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.AppendMessage(ctx, in.ConversationID, in.SessionID, in.UserID, in.Message, true, true); err != nil {
		if errors.Is(err, ErrConversationClosed) {
			metrics.MessagesTotal.WithLabelValues("closed").Inc()
		}
		return nil, err
	}

	start := time.Now()
	resp, err := s.responder.Invoke(ctx, core.Invocation{
		Input:          in.Message,
		ConversationID: in.ConversationID,
		SessionID:      in.SessionID,
		UserID:         in.UserID,
		History:        toTurns(history),
	})
	metrics.ResponderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Error("responder failed", slog.String("conversation_id", in.ConversationID), slog.Any("err", err))
		return nil, wrapError(ErrUpstream, "AI service error", err)
	}

	finished := IsTerminal(resp.Text, resp.IsFinished)
	result := &MessageResult{Username: user.Username, ContinueChat: !finished}

	if fields := ParseSummaryFields(resp.Text); fields.Complete() {
		summary, err := s.summaries.CreateSummary(ctx, SummaryInput{
			UserID:         in.UserID,
			ConversationID: in.ConversationID,
			SessionID:      in.SessionID,
			Fields:         fields,
		})
		if err != nil {
			return nil, err
		}
		result.Summary = summary

		migration, err := s.migrator.Migrate(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		result.Migration = migration
	}

	aiMsg, err := s.db.InsertChatMessage(ctx, &models.ChatMessage{
		UserID:         in.UserID,
		ConversationID: in.ConversationID,
		SessionID:      in.SessionID,
		Message:        resp.Text,
		IsFromUser:     false,
		IsActive:       !finished,
	})
	if err != nil {
		return nil, err
	}
	result.Message = aiMsg

	metrics.MessagesTotal.WithLabelValues("ok").Inc()
	s.logger.Info("message processed",
		slog.String("conversation_id", in.ConversationID),
		slog.Int64("user_id", in.UserID),
		slog.Bool("finished", finished),
		slog.Bool("summary", result.Summary != nil),
	)
	return result, nil
}

func (s *ChatService) checkRate(ctx context.Context, userID int64) error {
	if s.limiter == nil {
		return nil
	}
	ok, wait, err := s.limiter.Allow(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		// the limiter is advisory; an unreachable store lets traffic through
		s.logger.Warn("rate limiter unavailable", slog.Any("err", err))
		return nil
	}
	if !ok {
		metrics.RateLimitedTotal.Inc()
		return newError(ErrRateLimited, fmt.Sprintf("Too many messages. Retry in %s.", wait.Round(time.Second)))
	}
	return nil
}

func toTurns(msgs []models.ChatMessage) []core.Turn {
	turns := make([]core.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, core.Turn{FromUser: m.IsFromUser, Text: m.Message})
	}
	return turns
}
