package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrPurposeMismatch is returned when a grant was issued for another purpose.
	ErrPurposeMismatch = errors.New("grant purpose mismatch")
)

// Granter issues and verifies purpose-bound grants.
type Granter interface {
	Issue(userID int64, purpose string) (Grant, error)
	Verify(token, purpose string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config defines the inputs for building a Granter.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the grant lifetime.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Grant is a freshly signed token.
type Grant struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Claims is the payload of a grant.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the user the grant was issued for.
	UserID int64 `json:"user_id,string"`
	// Purpose is what the grant may be used for.
	Purpose string `json:"purpose"`
}
