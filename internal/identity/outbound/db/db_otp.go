package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
)

// OTPStore keeps one row per user in identity_user_otps.
type OTPStore struct {
	db *DB
}

func NewOTPStore(db *DB) *OTPStore {
	return &OTPStore{db: db}
}

func (s *OTPStore) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := s.db.startSpan(ctx, "OTPStore.Upsert")
	defer func() { s.db.endSpan(span, err) }()

	_, err = s.db.conn.Exec(ctx, `
INSERT INTO identity_user_otps (id, user_id, purpose, code_hash, otp_issued_at, failed_attempts)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE
SET id = EXCLUDED.id,
    purpose = EXCLUDED.purpose,
    code_hash = EXCLUDED.code_hash,
    otp_issued_at = EXCLUDED.otp_issued_at,
    failed_attempts = EXCLUDED.failed_attempts`,
		rec.ID, rec.UserID, int16(rec.Purpose), rec.CodeHash, rec.IssuedAt, rec.FailedAttempts)

	return s.db.mapError(err)
}

// Consume locks the row with SELECT ... FOR UPDATE so concurrent callers for
// the same user queue behind each other; once the winner deletes the row and
// commits, the others find nothing. A wrong guess bumps failed_attempts in
// the same transaction.
func (s *OTPStore) Consume(ctx context.Context, userID int64, check otpauth.CheckFunc) (err error) {
	ctx, span := s.db.startSpan(ctx, "OTPStore.Consume")
	defer func() { s.db.endSpan(span, err) }()

	var checkErr error
	err = s.db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var (
			rec      entity.OTPRecord
			purpose  int16
			attempts int16
		)
		err := tx.QueryRow(ctx, `
SELECT id, user_id, purpose, code_hash, otp_issued_at, failed_attempts
FROM identity_user_otps
WHERE user_id = $1
FOR UPDATE`, userID).Scan(&rec.ID, &rec.UserID, &purpose, &rec.CodeHash, &rec.IssuedAt, &attempts)
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.ErrOTPNotIssued
		}
		if err != nil {
			return err
		}
		rec.Purpose = entity.OTPPurpose(purpose)
		rec.FailedAttempts = int(attempts)

		checkErr = check(rec)
		switch {
		case otpauth.Settles(checkErr):
			_, err = tx.Exec(ctx, `DELETE FROM identity_user_otps WHERE id = $1`, rec.ID)
		case otpauth.CountsFailure(checkErr):
			_, err = tx.Exec(ctx, `
UPDATE identity_user_otps SET failed_attempts = failed_attempts + 1 WHERE id = $1`, rec.ID)
		}
		return err
	})
	if err != nil {
		return s.db.mapError(err)
	}

	return checkErr
}
