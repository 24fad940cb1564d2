package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const selectUser = `
SELECT u.id, u.email, u.full_name, u.status, c.password_changed_at, u.updated_at
FROM identity_users u
LEFT JOIN identity_user_credentials c ON c.user_id = u.id
WHERE u.deleted_at IS NULL`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		user      entity.User
		status    int16
		changedAt pgtype.Timestamptz
	)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &status, &changedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	user.Status = entity.UserStatus(status).Ensure()
	if changedAt.Valid {
		user.PasswordChangedAt = changedAt.Time
	}

	return &user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, selectUser+` AND lower(u.email) = lower($1)`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, selectUser+` AND u.id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

// UpdateUserPassword stores a new password hash and stamps the rotation time.
// The user's pending one-time code, if any, is left untouched.
func (s *DB) UpdateUserPassword(ctx context.Context, userID int64, hash string, changedAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPassword")
	defer func() { s.endSpan(span, err) }()

	err = s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE identity_users SET updated_at = $2
WHERE id = $1 AND deleted_at IS NULL`, userID, changedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
INSERT INTO identity_user_credentials (user_id, password, password_changed_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id) DO UPDATE
SET password = EXCLUDED.password,
    password_changed_at = EXCLUDED.password_changed_at,
    updated_at = EXCLUDED.updated_at`, userID, hash, changedAt)
		return err
	})

	return s.mapError(err)
}
