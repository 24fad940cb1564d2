package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeRepo struct {
	mu        sync.Mutex
	users     map[int64]*entity.User
	passwords map[int64]string
	updateErr error
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) UpdateUserPassword(_ context.Context, userID int64, hash string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return err
	}
	f.passwords[userID] = hash
	f.users[userID].PasswordChangedAt = changedAt
	return nil
}

type fakeNotifier struct {
	notices []otpauth.Notice
	err     error
}

func (f *fakeNotifier) Send(_ context.Context, n otpauth.Notice) error {
	f.notices = append(f.notices, n)
	return f.err
}

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

// memIdempotency mirrors the Redis state tracker: success is final, failure
// releases the key.
type memIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()
	return nil
}

type fakeBreach struct {
	n   int
	err error
}

func (f fakeBreach) Occurrences(context.Context, string) (int, error) { return f.n, f.err }

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Generate() int64 { return s.n.Inc() }

type seqUUID struct{ n atomic.Int64 }

func (s *seqUUID) Generate() string { return "jti-" + strconv.FormatInt(s.n.Inc(), 10) }

type harness struct {
	uc       *Usecase
	repo     *fakeRepo
	notifier *fakeNotifier
	limiter  *fakeLimiter
	clock    *clock.Fixed
	bcrypt   hash.Hash
	granter  jwt.Granter
}

type harnessOption func(*Dependency)

func withBreach(b password.BreachChecker) harnessOption {
	return func(d *Dependency) { d.Breach = b }
}

func withConfig(t *testing.T, yaml string) harnessOption {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return func(d *Dependency) { d.Config = cfg }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	clk := clock.NewFixed(t0)
	repo := &fakeRepo{
		users: map[int64]*entity.User{
			1: {ID: 1, Email: "jane@example.com", FullName: "Jane Doe", Status: entity.UserStatusActive},
			2: {ID: 2, Email: "banned@example.com", Status: entity.UserStatusBanned},
		},
		passwords: map[int64]string{},
	}
	provider := password.NewProvider(password.Default())

	otpDep := otpauth.Dependency{
		Store:      otpauth.NewMemoryStore(),
		Users:      repo,
		Hasher:     hash.NewHMACSHA256("test-secret"),
		Policy:     provider,
		Clock:      clk,
		IDs:        &seqIDs{},
		Instrument: instrument.NewNoop(),
	}

	granter, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate"},
		TTL:       10 * time.Minute,
		Clock:     clk,
		UUID:      &seqUUID{},
	})
	if err != nil {
		t.Fatalf("granter: %v", err)
	}

	v, err := validator.NewV10Validator("en")
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte("jwt:\n  grant_ttl_minutes: 10\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	h := &harness{
		repo:     repo,
		notifier: &fakeNotifier{},
		limiter:  &fakeLimiter{decision: ratelimit.Decision{Allowed: true}},
		clock:    clk,
		bcrypt:   hash.NewBcrypt(4, ""),
		granter:  granter,
	}

	dep := Dependency{
		RepoDB:       repo,
		Issuer:       otpauth.NewIssuer(otpDep),
		OTPValidator: otpauth.NewValidator(otpDep),
		Notifier:     h.notifier,
		Limiter:      h.limiter,
		Idempotency:  &memIdempotency{done: map[string]bool{}},
		Granter:      granter,
		Bcrypt:       h.bcrypt,
		Policy:       provider,
		Validator:    v,
		Config:       cfg,
		Clock:        clk,
		Instrument:   instrument.NewNoop(),
	}
	for _, opt := range opts {
		opt(&dep)
	}
	h.uc = New(dep)

	return h
}

// sendAndReadCode requests a code for jane and returns what the notifier got.
func (h *harness) sendAndReadCode(t *testing.T, purpose string) string {
	t.Helper()

	if _, err := h.uc.OTPSend(context.Background(), OTPSendInput{Email: "jane@example.com", Purpose: purpose}); err != nil {
		t.Fatalf("OTPSend: %v", err)
	}
	if len(h.notifier.notices) == 0 {
		t.Fatal("no notice sent")
	}
	return h.notifier.notices[len(h.notifier.notices)-1].Code
}

func (h *harness) grant(t *testing.T) string {
	t.Helper()

	code := h.sendAndReadCode(t, "")
	out, err := h.uc.OTPVerify(context.Background(), OTPVerifyInput{Email: "jane@example.com", Code: code})
	if err != nil {
		t.Fatalf("OTPVerify: %v", err)
	}
	return out.GrantToken
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error %v is not a goerror.Error", err)
	}
	return ge
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}
