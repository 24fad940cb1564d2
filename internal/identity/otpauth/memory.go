package otpauth

import (
	"context"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

// MemoryStore keeps records in process. Operations on the same user are
// serialized by a per-user mutex; different users never contend.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int64]entity.OTPRecord
	locks   map[int64]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[int64]entity.OTPRecord{},
		locks:   map[int64]*userLock{},
	}
}

func (m *MemoryStore) lock(userID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

func (m *MemoryStore) Upsert(ctx context.Context, rec entity.OTPRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := m.lock(rec.UserID)
	defer unlock()

	m.mu.Lock()
	m.records[rec.UserID] = rec
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Consume(ctx context.Context, userID int64, check CheckFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := m.lock(userID)
	defer unlock()

	m.mu.Lock()
	rec, ok := m.records[userID]
	m.mu.Unlock()
	if !ok {
		return entity.ErrOTPNotIssued
	}

	err := check(rec)

	m.mu.Lock()
	switch {
	case Settles(err):
		delete(m.records, userID)
	case CountsFailure(err):
		rec.FailedAttempts++
		m.records[userID] = rec
	}
	m.mu.Unlock()

	return err
}
