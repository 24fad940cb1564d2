package password

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // the range API is keyed by SHA-1
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultBreachEndpoint is the Pwned Passwords range API.
const DefaultBreachEndpoint = "https://api.pwnedpasswords.com/range/"

// BreachClient queries a k-anonymity range API: only the first five hex
// characters of the SHA-1 digest leave the process.
type BreachClient struct {
	endpoint   string
	httpClient *http.Client
	backoff    func() retry.Backoff
}

// BreachOption customises a BreachClient.
type BreachOption func(*BreachClient)

// WithBreachEndpoint overrides the range API base URL. It must end with "/".
func WithBreachEndpoint(endpoint string) BreachOption {
	return func(c *BreachClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithBreachHTTPClient replaces the HTTP client.
func WithBreachHTTPClient(hc *http.Client) BreachOption {
	return func(c *BreachClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBreachRetries sets the retry budget for transient failures.
func WithBreachRetries(maxRetries uint64, base time.Duration) BreachOption {
	return func(c *BreachClient) {
		c.backoff = func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(base))
		}
	}
}

// NewBreachClient returns a client for the Pwned Passwords range API.
func NewBreachClient(opts ...BreachOption) *BreachClient {
	c := &BreachClient{
		endpoint:   DefaultBreachEndpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	WithBreachRetries(2, 200*time.Millisecond)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Occurrences returns how often password appears in the corpus (0 when absent).
func (c *BreachClient) Occurrences(ctx context.Context, password string) (int, error) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec // see import
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	return retry.DoValue(ctx, c.backoff(), func(ctx context.Context) (int, error) {
		return c.lookup(ctx, prefix, suffix)
	})
}

var errBreachStatus = errors.New("unexpected breach api status")

func (c *BreachClient) lookup(ctx context.Context, prefix, suffix string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+prefix, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Add-Padding", "true")
	req.Header.Set("User-Agent", "otpgate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, retry.RetryableError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return 0, retry.RetryableError(fmt.Errorf("%w: %d", errBreachStatus, resp.StatusCode))
	default:
		return 0, fmt.Errorf("%w: %d", errBreachStatus, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		hashSuffix, rawCount, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(hashSuffix, suffix) {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil {
			return 0, fmt.Errorf("parse breach count: %w", err)
		}
		return n, nil
	}

	if err := scanner.Err(); err != nil {
		return 0, retry.RetryableError(err)
	}

	return 0, nil
}
