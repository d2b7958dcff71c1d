package anubis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/user"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/cache"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

var errAnubisTransient = errors.New("anubis transient failure")

type Config struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client resolves bearer tokens to principals through Anubis introspection.
// Successful lookups are cached by token hash.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	principals    *cache.Store[user.Principal]
	cacheEnabled  bool
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		principals:    cache.NewStore[user.Principal](cfg.CacheTTL),
		cacheEnabled:  cfg.CacheTTL > 0,
		breaker:       resilience.NewOptionalCircuitBreaker(cfg.CircuitBreaker),
		logger:        logger.Named("anubis"),
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}
	if !c.cacheEnabled {
		return c.introspectWithBreaker(ctx, token)
	}
	return c.principals.GetOrLoad(ctx, hashToken(token), func(ctx context.Context) (user.Principal, error) {
		return c.introspectWithBreaker(ctx, token)
	})
}

func (c *Client) introspectWithBreaker(ctx context.Context, token string) (user.Principal, error) {
	var (
		principal user.Principal
		final     error
	)
	err := c.breaker.Execute(func() error {
		p, err := c.introspect(ctx, token)
		if err != nil && !isCircuitFailure(err) {
			final = err
			return nil
		}
		principal = p
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "state", c.breaker.State())
		return user.Principal{}, fmt.Errorf("%w: anubis circuit open", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}
	if final != nil {
		return user.Principal{}, final
	}
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: request introspection: %v", errAnubisTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: read introspect response: %v", errAnubisTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// Anubis rejected our admin key, not the caller's token.
		return user.Principal{}, fmt.Errorf("%w: anubis rejected admin key", usecase.ErrDependencyUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return user.Principal{}, fmt.Errorf("%w: introspection status %d", errAnubisTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("anubis introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return user.Principal{UserID: decoded.UserID, Email: decoded.Email}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
