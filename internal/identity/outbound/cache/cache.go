// Package cache keeps one-time code records in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix     = "otp:"
	maxTxAttempts = 3

	// recordTTL outlives the longest validity window a policy reload can
	// set, so a record is never dropped before the code would expire.
	recordTTL = time.Duration(password.MaxOTPExpirationMinutes)*time.Minute + time.Minute
)

type record struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Purpose        int16     `json:"purpose"`
	CodeHash       string    `json:"code_hash"`
	IssuedAt       time.Time `json:"otp_issued_at"`
	FailedAttempts int       `json:"failed_attempts"`
}

// OTPStore stores each record under otp:{userID}. Keys carry a fixed TTL
// only so abandoned records clean themselves up; expiry itself is judged
// from otp_issued_at against the policy in force.
type OTPStore struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewOTPStore(client redis.UniversalClient, ins instrument.Instrumentation) *OTPStore {
	return &OTPStore{client: client, ins: ins}
}

func key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (s *OTPStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (s *OTPStore) endSpan(span trace.Span, err error) {
	if err != nil &&
		!errors.Is(err, entity.ErrOTPNotIssued) &&
		!errors.Is(err, entity.ErrOTPExpired) &&
		!errors.Is(err, entity.ErrOTPInvalid) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *OTPStore) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := s.startSpan(ctx, "OTPStore.Upsert")
	defer func() { s.endSpan(span, err) }()

	payload, err := json.Marshal(toRecord(rec))
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key(rec.UserID), payload, recordTTL).Err()
}

func toRecord(rec entity.OTPRecord) record {
	return record{
		ID:             rec.ID,
		UserID:         rec.UserID,
		Purpose:        int16(rec.Purpose),
		CodeHash:       rec.CodeHash,
		IssuedAt:       rec.IssuedAt.UTC(),
		FailedAttempts: rec.FailedAttempts,
	}
}

func (r record) toEntity() entity.OTPRecord {
	return entity.OTPRecord{
		ID:             r.ID,
		UserID:         r.UserID,
		Purpose:        entity.OTPPurpose(r.Purpose),
		CodeHash:       r.CodeHash,
		IssuedAt:       r.IssuedAt,
		FailedAttempts: r.FailedAttempts,
	}
}

// Consume watches the key, runs check and deletes (or rewrites the failed
// attempt count) inside MULTI. A concurrent write aborts the transaction; the
// attempt is retried against the new state, and a caller still losing after
// maxTxAttempts sees ErrOTPNotIssued.
func (s *OTPStore) Consume(ctx context.Context, userID int64, check otpauth.CheckFunc) (err error) {
	ctx, span := s.startSpan(ctx, "OTPStore.Consume")
	defer func() { s.endSpan(span, err) }()

	k := key(userID)

	var checkErr error
	consume := func(tx *redis.Tx) error {
		checkErr = nil

		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return entity.ErrOTPNotIssued
		}
		if err != nil {
			return err
		}

		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}

		checkErr = check(r.toEntity())

		switch {
		case otpauth.Settles(checkErr):
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, k)
				return nil
			})
		case otpauth.CountsFailure(checkErr):
			r.FailedAttempts++
			payload, mErr := json.Marshal(r)
			if mErr != nil {
				return mErr
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, k, payload, redis.KeepTTL)
				return nil
			})
		}
		return err
	}

	for range maxTxAttempts {
		err = s.client.Watch(ctx, consume, k)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return entity.ErrOTPNotIssued
	case err != nil:
		return err
	default:
		return checkErr
	}
}
