package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/inbound"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/cache"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/mq"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

const (
	OTPStorePostgres = "postgres"
	OTPStoreRedis    = "redis"
	OTPStoreMemory   = "memory"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   redis.UniversalClient      `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Bcrypt      hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Granter     jwt.Granter                `validate:"required"`
	Policy      *password.Provider         `validate:"required"`
	// Breach is optional; nil skips the breach corpus lookup.
	Breach password.BreachChecker
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbIdentity := db.NewDB(dep.DBConn, dep.Instrument)

	store, err := newOTPStore(dep, dbIdentity)
	if err != nil {
		return err
	}

	otpDep := otpauth.Dependency{
		Store:       store,
		Users:       dbIdentity,
		Hasher:      dep.HMAC,
		Policy:      dep.Policy,
		Clock:       dep.Clock,
		IDs:         dep.UID,
		MaxAttempts: dep.Config.GetInt("modules.identity.otp.max_attempts"),
		Instrument:  dep.Instrument,
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:       dbIdentity,
		Issuer:       otpauth.NewIssuer(otpDep),
		OTPValidator: otpauth.NewValidator(otpDep),
		Notifier:     mq.NewNotifier(dep.Messaging, dep.Instrument),
		Limiter:      ratelimit.NewRedis(dep.CacheConn, sendLimits(dep.Config)),
		Idempotency:  dep.Idempotency,
		Granter:      dep.Granter,
		Bcrypt:       dep.Bcrypt,
		Policy:       dep.Policy,
		Breach:       dep.Breach,
		Validator:    dep.Validator,
		Config:       dep.Config,
		Clock:        dep.Clock,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, ratelimit.NewRedis(dep.CacheConn, ipLimits(dep.Config)))

	return nil
}

func newOTPStore(dep Dependency, dbIdentity *db.DB) (otpauth.Store, error) {
	kind := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.identity.otp.store")))

	switch kind {
	case "", OTPStorePostgres:
		return db.NewOTPStore(dbIdentity), nil
	case OTPStoreRedis:
		return cache.NewOTPStore(dep.CacheConn, dep.Instrument), nil
	case OTPStoreMemory:
		return otpauth.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("identity: unknown otp store %q", kind)
	}
}

func sendLimits(cfg config.Config) ratelimit.Config {
	return ratelimit.Config{
		Prefix:       "otp_send:",
		Cooldown:     lo.CoalesceOrEmpty(cfg.GetSecond("modules.identity.otp.resend_cooldown_seconds"), time.Minute),
		Window:       lo.CoalesceOrEmpty(cfg.GetSecond("modules.identity.otp.window_seconds"), 15*time.Minute),
		MaxPerWindow: lo.CoalesceOrEmpty(cfg.GetInt("modules.identity.otp.max_per_window"), 5),
	}
}

func ipLimits(cfg config.Config) ratelimit.Config {
	return ratelimit.Config{
		Prefix:       "http:",
		Window:       lo.CoalesceOrEmpty(cfg.GetSecond("modules.identity.http.ip_window_seconds"), time.Minute),
		MaxPerWindow: lo.CoalesceOrEmpty(cfg.GetInt("modules.identity.http.ip_max_per_window"), 30),
	}
}
