package otpauth

import (
	"errors"
	"fmt"
	"io"
)

// errShortCode guards against a misconfigured length slipping through.
var errShortCode = errors.New("otpauth: code length must be positive")

// generateCode returns length decimal digits drawn uniformly from r.
// Bytes >= 250 are rejected so every digit has probability exactly 1/10.
func generateCode(r io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", errShortCode
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("otpauth: read random: %w", err)
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
