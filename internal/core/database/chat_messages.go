package db

import (
	"context"
	"errors"

	"github.com/markdave123-py/dreammend/internal/models"
)

const chatMessageColumns = `id, user_id, conversation_id, session_id, message, is_from_user, timestamp, is_active`

func scanChatMessage(row rowScanner) (*models.ChatMessage, error) {
	var m models.ChatMessage
	if err := row.Scan(
		&m.ID, &m.UserID, &m.ConversationID, &m.SessionID, &m.Message, &m.IsFromUser, &m.Timestamp, &m.IsActive,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *queries) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg == nil {
		return nil, errors.New("nil chat message")
	}
	const query = `
		INSERT INTO chat_messages (user_id, conversation_id, session_id, message, is_from_user, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + chatMessageColumns

	m, err := scanChatMessage(q.db.QueryRowContext(ctx, query,
		msg.UserID, msg.ConversationID, msg.SessionID, msg.Message, msg.IsFromUser, msg.IsActive))
	if err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

// LatestChatMessage orders by timestamp and breaks ties by the highest id.
func (q *queries) LatestChatMessage(ctx context.Context, conversationID string) (*models.ChatMessage, error) {
	const query = `
		SELECT ` + chatMessageColumns + `
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	m, err := scanChatMessage(q.db.QueryRowContext(ctx, query, conversationID))
	if err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

func (q *queries) ListChatMessages(ctx context.Context, conversationID string, userID int64) ([]models.ChatMessage, error) {
	const query = `
		SELECT ` + chatMessageColumns + `
		FROM chat_messages
		WHERE conversation_id = $1 AND user_id = $2
		ORDER BY timestamp ASC, id ASC`

	rows, err := q.db.QueryContext(ctx, query, conversationID, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, *m)
	}
	return out, wrapErr(rows.Err())
}
