// Package transferroom talks to the TransferRoom external API: credential
// login, bearer-token refresh, and paged record fetches for the sync
// pipeline.
package transferroom

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/resilience"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

const (
	defaultBaseURL         = "https://apiprod.transferroom.com/api/external"
	defaultTimeout         = 60 * time.Second
	defaultTokenTTL        = 55 * time.Minute
	defaultRequestInterval = 500 * time.Millisecond

	// tokenExpirySlack refreshes the token slightly before its claimed
	// expiry so an in-flight request never carries a token about to die.
	tokenExpirySlack = 30 * time.Second

	maxResponseBytes = 32 << 20
)

var credentialParamRegex = regexp.MustCompile(`(email|password)=[^&\s"']+`)

// positionCodes are the provider's position filters; the players endpoint is
// paged by walking them in this order, one request per code.
var positionCodes = []string{"GK", "CB", "LB", "RB", "DM", "CM", "AM", "W", "F"}

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	Email           string
	Password        string
	Timeout         time.Duration
	TokenTTL        time.Duration
	RequestInterval time.Duration
	Retry           resilience.Retry
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient      *http.Client
	baseURL         string
	email           string
	password        string
	tokenTTL        time.Duration
	requestInterval time.Duration
	retry           resilience.Retry
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
	flight          resilience.SingleFlight
	now             func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	lastRequest time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	// Zero picks the default pacing; negative disables it outright.
	requestInterval := cfg.RequestInterval
	if requestInterval == 0 {
		requestInterval = defaultRequestInterval
	} else if requestInterval < 0 {
		requestInterval = 0
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = resilience.DefaultRetry()
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:      httpClient,
		baseURL:         baseURL,
		email:           strings.TrimSpace(cfg.Email),
		password:        cfg.Password,
		tokenTTL:        tokenTTL,
		requestInterval: requestInterval,
		retry:           retry,
		logger:          logger,
		breaker:         resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:  breakerCfg.Enabled,
		now:             time.Now,
	}
}

// FetchPage returns one page of raw records for the given kind. Players are
// paged position by position; competitions arrive in a single page. hasMore
// is truthful: false means no further page exists for the kind.
func (c *Client) FetchPage(ctx context.Context, kind string, page, limit int) ([]map[string]any, bool, error) {
	switch kind {
	case usecase.KindPlayers:
		if page < 0 || page >= len(positionCodes) {
			return nil, false, nil
		}
		query := url.Values{}
		query.Set("position", positionCodes[page])
		if limit > 0 {
			query.Set("amount", strconv.Itoa(limit))
		}
		records, err := c.fetchRecords(ctx, "/players", query)
		if err != nil {
			return nil, false, err
		}
		return records, page+1 < len(positionCodes), nil

	case usecase.KindCompetitions:
		if page > 0 {
			return nil, false, nil
		}
		records, err := c.fetchRecords(ctx, "/competitions", nil)
		if err != nil {
			return nil, false, err
		}
		return records, false, nil

	default:
		return nil, false, crerr.Newf("unknown entity kind %q", kind)
	}
}

// Authenticate exchanges the configured credentials for a bearer token. It is
// called transparently by fetches; exposing it lets callers fail fast on bad
// credentials before opening a sync run.
func (c *Client) Authenticate(ctx context.Context) error {
	loginURL := c.baseURL + "/login?" + url.Values{
		"email":    {c.email},
		"password": {c.password},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, nil)
	if err != nil {
		return crerr.Wrap(err, "build login request")
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return crerr.Mark(fmt.Errorf("login request: %s", c.sanitize(err.Error())), resilience.ErrTransient)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return crerr.Mark(fmt.Errorf("read login response: %v", readErr), resilience.ErrTransient)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case isRetryableStatus(resp.StatusCode):
		return crerr.Mark(fmt.Errorf("login status=%d", resp.StatusCode), resilience.ErrTransient)
	default:
		return crerr.Mark(fmt.Errorf("login status=%d", resp.StatusCode), usecase.ErrAuth)
	}

	token := parseLoginToken(raw)
	if token == "" {
		return crerr.Mark(fmt.Errorf("login returned no token"), usecase.ErrAuth)
	}

	c.mu.Lock()
	c.token = token
	c.tokenExpiry = jwtExpiry(token, c.now(), c.tokenTTL)
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "transferroom token refreshed")
	return nil
}

func (c *Client) fetchRecords(ctx context.Context, path string, query url.Values) ([]map[string]any, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "transferroom circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Mark(fmt.Errorf("source is temporarily unavailable"), usecase.ErrSourceUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if query != nil {
		if encoded := query.Encode(); encoded != "" {
			fullURL += "?" + encoded
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, crerr.Newf("unexpected response payload type %T", out)
	}

	var records []map[string]any
	if err := sonic.Unmarshal(raw, &records); err != nil {
		return nil, crerr.Wrap(err, "decode source payload")
	}
	return records, nil
}

// executeRequest performs one authenticated GET under the retry policy. An
// auth-expiry response drops the cached token and retries once with a fresh
// one; a second rejection means the credentials themselves are bad.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var (
		body        []byte
		authRetried bool
	)

	op := func() error {
		if err := c.waitInterval(ctx); err != nil {
			return err
		}
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return crerr.Wrap(err, "build request")
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return crerr.Mark(fmt.Errorf("send request: %s", c.sanitize(err.Error())), resilience.ErrTransient)
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			return crerr.Mark(fmt.Errorf("read response body: %v", readErr), resilience.ErrTransient)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body = raw
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			if authRetried {
				return crerr.Mark(fmt.Errorf("source rejected refreshed token"), usecase.ErrAuth)
			}
			authRetried = true
			c.invalidateToken()
			return crerr.Mark(fmt.Errorf("source status=401"), resilience.ErrTransient)
		case isRetryableStatus(resp.StatusCode):
			return crerr.Mark(fmt.Errorf("source status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), resilience.ErrTransient)
		default:
			return crerr.Mark(fmt.Errorf("source status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), usecase.ErrSourceRejected)
		}
	}

	if err := c.retry.Do(ctx, op); err != nil {
		if resilience.IsTransient(err) {
			err = crerr.Mark(err, usecase.ErrSourceUnavailable)
		}
		c.logger.WarnContext(ctx, "transferroom request failed", "url", fullURL, "error", crerr.New(c.sanitize(err.Error())))
		return nil, err
	}
	return body, nil
}

// ensureToken returns a token valid for at least the expiry slack, logging in
// when the cached one is missing or stale.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	fresh := token != "" && c.now().Add(tokenExpirySlack).Before(c.tokenExpiry)
	c.mu.Unlock()

	if fresh {
		return token, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	token = c.token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// waitInterval enforces the fixed delay between consecutive requests the
// upstream rate limit asks for.
func (c *Client) waitInterval(ctx context.Context) error {
	if c.requestInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	now := c.now()
	wait := c.requestInterval - now.Sub(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return resilience.SleepContext(ctx, wait)
}

// sanitize strips credentials and the live token from text that may end up in
// logs or error chains.
func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	if c.password != "" {
		value = strings.ReplaceAll(value, c.password, "REDACTED")
	}
	return credentialParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isCircuitFailure(err error) bool {
	return resilience.IsTransient(err) || crerr.Is(err, usecase.ErrSourceUnavailable)
}

// parseLoginToken accepts the login body as a bare token, a JSON string, or
// an object carrying a token field.
func parseLoginToken(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return ""
	}

	if strings.HasPrefix(body, "{") {
		var envelope struct {
			Token       string `json:"token"`
			AccessToken string `json:"access_token"`
		}
		if err := sonic.Unmarshal(raw, &envelope); err != nil {
			return ""
		}
		if envelope.Token != "" {
			return envelope.Token
		}
		return envelope.AccessToken
	}

	if strings.HasPrefix(body, `"`) {
		var token string
		if err := sonic.Unmarshal(raw, &token); err != nil {
			return ""
		}
		return strings.TrimSpace(token)
	}

	return body
}

// jwtExpiry reads the exp claim out of a JWT, falling back to now+ttl for
// opaque tokens.
func jwtExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	parts := strings.Split(token, ".")
	if len(parts) == 3 {
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err == nil {
			var claims struct {
				Exp int64 `json:"exp"`
			}
			if sonic.Unmarshal(payload, &claims) == nil && claims.Exp > 0 {
				return time.Unix(claims.Exp, 0)
			}
		}
	}
	return now.Add(ttl)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
