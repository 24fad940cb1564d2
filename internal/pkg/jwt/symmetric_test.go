package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

func newTestGranter(t *testing.T, clk *clock.Fixed) *Symmetric {
	t.Helper()

	g, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate-api"},
		TTL:       10 * time.Minute,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	return g
}

func TestSymmetric_IssueVerify(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Now().UTC().Truncate(time.Second))
	g := newTestGranter(t, clk)

	// Act
	grant, err := g.Issue(42, "password_reset")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := g.Verify(grant.Token, "password_reset")

	// Assert
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != 42 || claims.ID != grant.ID || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !grant.ExpiresAt.Equal(clk.Now().Add(10 * time.Minute)) {
		t.Fatalf("ExpiresAt = %v", grant.ExpiresAt)
	}
}

func TestSymmetric_VerifyFailures(t *testing.T) {
	clk := clock.NewFixed(time.Now().UTC().Truncate(time.Second))
	g := newTestGranter(t, clk)

	grant, err := g.Issue(42, "password_reset")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := g.Verify(grant.Token, "login"); !errors.Is(err, ErrPurposeMismatch) {
		t.Fatalf("Verify(other purpose) error = %v", err)
	}

	if _, err := g.Verify(grant.Token+"x", "password_reset"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify(tampered) error = %v", err)
	}

	clk.Advance(11 * time.Minute)
	if _, err := g.Verify(grant.Token, "password_reset"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify(expired) error = %v", err)
	}
}

func TestNewHS512_ShortSecret(t *testing.T) {
	if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("NewHS512() error = %v", err)
	}
}
