package db

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/dreammend/internal/models"
)

const dreamEntryColumns = `id, user_id, COALESCE(title, ''), COALESCE(abstract, ''),
		COALESCE(original_dream, ''), COALESCE(rewritten_dream, ''), times, created_date,
		COALESCE(session_id, ''), embedding IS NOT NULL`

func scanDreamEntry(row rowScanner) (*models.DreamEntry, error) {
	var e models.DreamEntry
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Abstract, &e.OriginalDream, &e.RewrittenDream,
		&e.Times, &e.CreatedDate, &e.SessionID, &e.Indexed,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanDreamEntries(ctx context.Context, db DBTX, query string, args ...any) ([]models.DreamEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var out []models.DreamEntry
	for rows.Next() {
		e, err := scanDreamEntry(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, *e)
	}
	return out, wrapErr(rows.Err())
}

// InsertDreamEntry skips rows whose session already has an entry and reports
// them as ErrDuplicate. An empty session id is stored as NULL.
func (q *queries) InsertDreamEntry(ctx context.Context, e *models.DreamEntry) (*models.DreamEntry, error) {
	if e == nil {
		return nil, errors.New("nil dream entry")
	}
	const query = `
		INSERT INTO dream_entries
			(user_id, title, abstract, original_dream, rewritten_dream, times, created_date, session_id)
		VALUES
			($1, $2, $3, $4, $5, $6, COALESCE($7, now()), NULLIF($8, ''))
		ON CONFLICT (session_id) DO NOTHING
		RETURNING ` + dreamEntryColumns

	out, err := scanDreamEntry(q.db.QueryRowContext(ctx, query,
		e.UserID, e.Title, e.Abstract, e.OriginalDream, e.RewrittenDream, e.Times,
		nullTime(e.CreatedDate), e.SessionID,
	))
	if err != nil {
		err = wrapErr(err)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

func (q *queries) DreamEntryExistsForSession(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM dream_entries WHERE session_id = $1)`
	var exists bool
	if err := q.db.QueryRowContext(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, wrapErr(err)
	}
	return exists, nil
}

func (q *queries) ListDreamEntries(ctx context.Context, userID int64) ([]models.DreamEntry, error) {
	const query = `
		SELECT ` + dreamEntryColumns + `
		FROM dream_entries
		WHERE user_id = $1
		ORDER BY id ASC`
	return scanDreamEntries(ctx, q.db, query, userID)
}

func (q *queries) GetDreamEntry(ctx context.Context, userID, id int64) (*models.DreamEntry, error) {
	const query = `
		SELECT ` + dreamEntryColumns + `
		FROM dream_entries
		WHERE id = $1 AND user_id = $2`

	e, err := scanDreamEntry(q.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, wrapErr(err)
	}
	return e, nil
}

// UpdateDreamEntry rewrites the text fields and clears the embedding so the
// entry is indexed again.
func (q *queries) UpdateDreamEntry(ctx context.Context, e *models.DreamEntry) (*models.DreamEntry, error) {
	if e == nil {
		return nil, errors.New("nil dream entry")
	}
	const query = `
		UPDATE dream_entries SET
			title = $3, abstract = $4, original_dream = $5, rewritten_dream = $6, times = $7,
			embedding = NULL
		WHERE id = $1 AND user_id = $2
		RETURNING ` + dreamEntryColumns

	out, err := scanDreamEntry(q.db.QueryRowContext(ctx, query,
		e.ID, e.UserID, e.Title, e.Abstract, e.OriginalDream, e.RewrittenDream, e.Times))
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (q *queries) DeleteDreamEntry(ctx context.Context, userID, id int64) (*models.DreamEntry, error) {
	const query = `
		DELETE FROM dream_entries
		WHERE id = $1 AND user_id = $2
		RETURNING ` + dreamEntryColumns

	e, err := scanDreamEntry(q.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, wrapErr(err)
	}
	return e, nil
}

func (q *queries) SetDreamEntryEmbedding(ctx context.Context, id int64, embedding []float32) error {
	const query = `UPDATE dream_entries SET embedding = $2 WHERE id = $1`
	return execOne(ctx, q.db, query, id, pgvector.NewVector(embedding))
}

// SimilarDreamEntries returns the user's entries nearest to entry id by L2
// distance. Entries without an embedding are ignored.
func (q *queries) SimilarDreamEntries(ctx context.Context, userID, id int64, limit int) ([]models.DreamEntry, error) {
	const query = `
		SELECT ` + dreamEntryColumns + `
		FROM dream_entries
		WHERE user_id = $1 AND id <> $2 AND embedding IS NOT NULL
		ORDER BY embedding <-> (SELECT embedding FROM dream_entries WHERE id = $2 AND user_id = $1)
		LIMIT $3`
	return scanDreamEntries(ctx, q.db, query, userID, id, limit)
}
