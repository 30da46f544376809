package db

import (
	"context"
	"errors"

	"github.com/markdave123-py/dreammend/internal/models"
)

func (q *queries) CreatePasswordResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	if t == nil {
		return errors.New("nil reset token")
	}
	const query = `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := q.db.QueryRowContext(ctx, query, t.UserID, t.Token, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (q *queries) FindPasswordResetToken(ctx context.Context, email, token string) (*models.PasswordResetToken, error) {
	const query = `
		SELECT t.id, t.user_id, t.token, t.expires_at, t.created_at, t.is_used
		FROM password_reset_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.email = $1 AND t.token = $2 AND NOT t.is_used
		ORDER BY t.id DESC
		LIMIT 1`

	var t models.PasswordResetToken
	err := q.db.QueryRowContext(ctx, query, email, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.IsUsed,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &t, nil
}

func (q *queries) MarkPasswordResetTokenUsed(ctx context.Context, id int64) error {
	const query = `UPDATE password_reset_tokens SET is_used = TRUE WHERE id = $1`
	return execOne(ctx, q.db, query, id)
}

func (q *queries) CreateEmailVerificationToken(ctx context.Context, t *models.EmailVerificationToken) error {
	if t == nil {
		return errors.New("nil verification token")
	}
	const query = `
		INSERT INTO email_verification_tokens (user_id, new_email, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	if err := q.db.QueryRowContext(ctx, query, t.UserID, t.NewEmail, t.Token, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (q *queries) FindEmailVerificationToken(ctx context.Context, userID int64, token string) (*models.EmailVerificationToken, error) {
	const query = `
		SELECT id, user_id, new_email, token, expires_at, created_at, is_used
		FROM email_verification_tokens
		WHERE user_id = $1 AND token = $2 AND NOT is_used
		ORDER BY id DESC
		LIMIT 1`

	var t models.EmailVerificationToken
	err := q.db.QueryRowContext(ctx, query, userID, token).Scan(
		&t.ID, &t.UserID, &t.NewEmail, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.IsUsed,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &t, nil
}

func (q *queries) MarkEmailVerificationTokenUsed(ctx context.Context, id int64) error {
	const query = `UPDATE email_verification_tokens SET is_used = TRUE WHERE id = $1`
	return execOne(ctx, q.db, query, id)
}
