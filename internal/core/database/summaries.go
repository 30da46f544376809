package db

import (
	"context"
	"errors"

	"github.com/markdave123-py/dreammend/internal/models"
)

const summaryColumns = `id, user_id, conversation_id, session_id, title, abstract,
		original_dream, rewritten_dream, selected, timestamp`

func scanSummary(row rowScanner) (*models.Summary, error) {
	var s models.Summary
	if err := row.Scan(
		&s.ID, &s.UserID, &s.ConversationID, &s.SessionID, &s.Title, &s.Abstract,
		&s.OriginalDream, &s.RewrittenDream, &s.Selected, &s.Timestamp,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (q *queries) InsertSummary(ctx context.Context, s *models.Summary) (*models.Summary, error) {
	if s == nil {
		return nil, errors.New("nil summary")
	}
	const query = `
		INSERT INTO summaries
			(user_id, conversation_id, session_id, title, abstract, original_dream, rewritten_dream, selected, timestamp)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		RETURNING ` + summaryColumns

	out, err := scanSummary(q.db.QueryRowContext(ctx, query,
		s.UserID, s.ConversationID, s.SessionID, s.Title, s.Abstract, s.OriginalDream, s.RewrittenDream,
		s.Selected, nullTime(s.Timestamp),
	))
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (q *queries) GetSummary(ctx context.Context, id int64) (*models.Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE id = $1`
	s, err := scanSummary(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err)
	}
	return s, nil
}

func (q *queries) UnselectSummaries(ctx context.Context, conversationID string) error {
	const query = `UPDATE summaries SET selected = FALSE WHERE conversation_id = $1 AND selected`
	if _, err := q.db.ExecContext(ctx, query, conversationID); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (q *queries) MarkSummarySelected(ctx context.Context, id int64) (*models.Summary, error) {
	const query = `
		UPDATE summaries SET selected = TRUE
		WHERE id = $1
		RETURNING ` + summaryColumns

	s, err := scanSummary(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err)
	}
	return s, nil
}

func (q *queries) ListSelectedSummaries(ctx context.Context, userID int64) ([]models.Summary, error) {
	const query = `
		SELECT ` + summaryColumns + `
		FROM summaries
		WHERE user_id = $1 AND selected
		ORDER BY id ASC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var out []models.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, *s)
	}
	return out, wrapErr(rows.Err())
}
