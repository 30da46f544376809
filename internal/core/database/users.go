package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/markdave123-py/dreammend/internal/models"
)

const userColumns = `id, username, email, password, header_image_url, profile_image_url,
		name, surname, date_of_birth, phone_number, gender, region, education,
		created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u   models.User
		dob sql.NullTime
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.HeaderImageURL, &u.ProfileImageURL,
		&u.Name, &u.Surname, &dob, &u.PhoneNumber, &u.Gender, &u.Region, &u.Education,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dob.Valid {
		d := models.NewDate(dob.Time)
		u.DateOfBirth = &d
	}
	return &u, nil
}

func (q *queries) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}
	const query = `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	u, err := scanUser(q.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash))
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

func (q *queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(q.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

// UpdateUserProfile applies the non-nil fields of patch. Email is not part
// of the profile update; it changes only through verification.
func (q *queries) UpdateUserProfile(ctx context.Context, id int64, patch models.ProfilePatch) (*models.User, error) {
	const query = `
		UPDATE users SET
			username         = COALESCE($2, username),
			header_image_url = COALESCE($3, header_image_url),
			name             = COALESCE($4, name),
			surname          = COALESCE($5, surname),
			date_of_birth    = COALESCE($6, date_of_birth),
			phone_number     = COALESCE($7, phone_number),
			gender           = COALESCE($8, gender),
			region           = COALESCE($9, region),
			education        = COALESCE($10, education),
			updated_at       = now()
		WHERE id = $1
		RETURNING ` + userColumns

	var dob any
	if patch.DateOfBirth != nil {
		dob = patch.DateOfBirth.Time
	}

	u, err := scanUser(q.db.QueryRowContext(ctx, query, id,
		patch.Username, patch.HeaderImageURL, patch.Name, patch.Surname, dob,
		patch.PhoneNumber, patch.Gender, patch.Region, patch.Education,
	))
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

func (q *queries) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	const query = `UPDATE users SET email = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, q.db, query, id, email)
}

func (q *queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, q.db, query, id, passwordHash)
}

func (q *queries) UpdateUserProfileImage(ctx context.Context, id int64, url string) error {
	const query = `UPDATE users SET profile_image_url = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, q.db, query, id, url)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, db DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
