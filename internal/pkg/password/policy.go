package password

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrConfiguration reports an invalid policy configuration. It is fatal at
// startup and rejected on reload.
var ErrConfiguration = errors.New("password: invalid policy configuration")

// Default values applied to keys missing from the configuration mapping.
const (
	DefaultOTPExpirationMinutes = 5
	DefaultOTPLength            = 6
	DefaultExpiresInDays        = 60
	DefaultMinLength            = 8
)

// Upper bounds accepted by Load. MaxOTPExpirationMinutes also sizes the
// lifetime of cached OTP records, so a reload never outlives a stored code.
const (
	MaxOTPExpirationMinutes = 24 * 60
	MaxOTPLength            = 12
	MaxExpiresInDays        = 3650
	MaxMinLength            = 128
	MaxCompromisedThreshold = 1_000_000
)

// Policy is the configured set of password-strength and OTP-timing rules.
// The zero value is not usable; build one with Default or Load.
type Policy struct {
	otpExpirationMinutes int
	otpLength            int
	expiresInDays        int
	minLength            int
	mixedCase            bool
	letters              bool
	numbers              bool
	symbols              bool
	uncompromised        bool
	compromisedThreshold int
}

// Default returns the policy used when configuration provides no overrides.
func Default() Policy {
	return Policy{
		otpExpirationMinutes: DefaultOTPExpirationMinutes,
		otpLength:            DefaultOTPLength,
		expiresInDays:        DefaultExpiresInDays,
		minLength:            DefaultMinLength,
		mixedCase:            true,
		letters:              true,
		numbers:              true,
		symbols:              true,
		uncompromised:        true,
		compromisedThreshold: 0,
	}
}

// Load parses a configuration mapping into a Policy.
//
// Keys are matched ignoring case and underscores, so "mixed_case",
// "mixedCase" and "mixedcase" are the same key. Unknown keys are ignored.
// Integers may arrive as any numeric type or as a decimal string (environment
// overrides); booleans as bool or "true"/"false".
func Load(config map[string]any) (Policy, error) {
	p := Default()

	ints := []struct {
		key   string
		min   int
		max   int
		field *int
	}{
		{key: "otp_expiration_minutes", min: 1, max: MaxOTPExpirationMinutes, field: &p.otpExpirationMinutes},
		{key: "otp_length", min: 4, max: MaxOTPLength, field: &p.otpLength},
		{key: "expires_in", min: 1, max: MaxExpiresInDays, field: &p.expiresInDays},
		{key: "min", min: 1, max: MaxMinLength, field: &p.minLength},
		{key: "compromised_threshold", min: 0, max: MaxCompromisedThreshold, field: &p.compromisedThreshold},
	}
	bools := []struct {
		key   string
		field *bool
	}{
		{key: "mixed_case", field: &p.mixedCase},
		{key: "letters", field: &p.letters},
		{key: "numbers", field: &p.numbers},
		{key: "symbols", field: &p.symbols},
		{key: "uncompromised", field: &p.uncompromised},
	}

	values := make(map[string]any, len(config))
	for k, v := range config {
		values[normalizeKey(k)] = v
	}

	for _, f := range ints {
		raw, ok := values[normalizeKey(f.key)]
		if !ok || raw == nil {
			continue
		}

		n, err := toInt(raw)
		if err != nil {
			return Policy{}, fmt.Errorf("%w: %s: %v", ErrConfiguration, f.key, err)
		}
		if n < f.min {
			return Policy{}, fmt.Errorf("%w: %s must be at least %d, got %d", ErrConfiguration, f.key, f.min, n)
		}
		if n > f.max {
			return Policy{}, fmt.Errorf("%w: %s must be at most %d, got %d", ErrConfiguration, f.key, f.max, n)
		}
		*f.field = n
	}

	for _, f := range bools {
		raw, ok := values[normalizeKey(f.key)]
		if !ok || raw == nil {
			continue
		}

		b, err := toBool(raw)
		if err != nil {
			return Policy{}, fmt.Errorf("%w: %s: %v", ErrConfiguration, f.key, err)
		}
		*f.field = b
	}

	return p, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(k)))
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("value %d out of range", n)
		}
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected an integer, got %v", f)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("expected a boolean, got %q", b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

// OTPExpirationMinutes is the validity window of a one-time code.
func (p Policy) OTPExpirationMinutes() int { return p.otpExpirationMinutes }

// OTPLength is the number of digits in a generated one-time code.
func (p Policy) OTPLength() int { return p.otpLength }

// ExpiresInDays is the password rotation period after a reset.
func (p Policy) ExpiresInDays() int { return p.expiresInDays }

// OTPTTL is OTPExpirationMinutes as a duration.
func (p Policy) OTPTTL() time.Duration {
	return time.Duration(p.otpExpirationMinutes) * time.Minute
}

// IsExpired reports whether a code issued at issuedAt is past its window at
// now. A code is still valid at exactly issuedAt + OTPTTL.
func (p Policy) IsExpired(issuedAt, now time.Time) bool {
	return now.After(issuedAt.Add(p.OTPTTL()))
}

// PasswordExpiresAt is the moment a password set at changedAt must be rotated.
func (p Policy) PasswordExpiresAt(changedAt time.Time) time.Time {
	return changedAt.AddDate(0, 0, p.expiresInDays)
}

// IsPasswordExpired reports whether a password set at changedAt is due for
// rotation at now.
func (p Policy) IsPasswordExpired(changedAt, now time.Time) bool {
	return now.After(p.PasswordExpiresAt(changedAt))
}

// Rule describes the password requirements as data.
func (p Policy) Rule() RuleSpec {
	return RuleSpec{
		MinimumLength:        p.minLength,
		MixedCase:            p.mixedCase,
		Letters:              p.letters,
		Numbers:              p.numbers,
		Symbols:              p.symbols,
		Uncompromised:        p.uncompromised,
		CompromisedThreshold: p.compromisedThreshold,
	}
}
