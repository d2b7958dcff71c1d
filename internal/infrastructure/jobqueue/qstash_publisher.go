package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher schedules delayed HTTP callbacks to this service through
// Upstash QStash. The deduplication id makes re-enqueueing a cutoff a no-op.
type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger.Named("qstash"),
		breaker:          resilience.NewOptionalCircuitBreaker(cfg.CircuitBreaker),
	}
}

type publishRequest struct {
	path       string
	targetURL  string
	publishURL string
	body       []byte
	delay      string
	dedupID    string
}

func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	req, err := p.buildRequest(path, payload, delay, deduplicationID)
	if err != nil {
		return err
	}

	preview := p.curlPreview(req)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", req.targetURL),
			attribute.String("qstash.path", req.path),
			attribute.String("qstash.delay", req.delay),
			attribute.String("qstash.deduplication_id", req.dedupID),
			attribute.String("qstash.request_curl_preview", preview),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request", "path", req.path, "target_url", req.targetURL, "curl_preview", preview)

	// Only transient failures count against the breaker; a 4xx is our bug, not QStash's.
	var permanent error
	err = p.breaker.Execute(func() error {
		callErr := p.send(ctx, req)
		if callErr != nil && !crerr.Is(callErr, errQStashTransient) {
			permanent = callErr
			return nil
		}
		return callErr
	})
	if err == nil {
		err = permanent
	}
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", p.breaker.State(), "path", req.path)
		return crerr.Wrap(err, "qstash is temporarily unavailable")
	}
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published", "path", req.path, "delay", req.delay, "deduplication_id", req.dedupID)
	return nil
}

func (p *QStashPublisher) buildRequest(path string, payload any, delay time.Duration, deduplicationID string) (publishRequest, error) {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return publishRequest{}, crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "marshal job payload")
	}

	targetURL := targetBaseURL + path
	return publishRequest{
		path:       path,
		targetURL:  targetURL,
		publishURL: baseURL + "/v2/publish/" + targetURL,
		body:       body,
		delay:      normalizeDelay(delay),
		dedupID:    strings.TrimSpace(deduplicationID),
	}, nil
}

func (p *QStashPublisher) send(ctx context.Context, pr publishRequest) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pr.publishURL, bytes.NewReader(pr.body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if pr.delay != "0s" {
		req.Header.Set("Upstash-Delay", pr.delay)
	}
	if pr.dedupID != "" {
		req.Header.Set("Upstash-Deduplication-Id", pr.dedupID)
	}
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, pr.targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isQStashRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: publish qstash job status=%d target_url=%s body=%s",
			errQStashTransient, resp.StatusCode, pr.targetURL, strings.TrimSpace(string(raw)))
	}
	return crerr.Newf("publish qstash job status=%d target_url=%s body=%s",
		resp.StatusCode, pr.targetURL, strings.TrimSpace(string(raw)))
}

// normalizeDelay renders the whole-second delay QStash expects, rounded up so
// delivery never lands before the requested time.
func normalizeDelay(delay time.Duration) string {
	seconds := int(math.Ceil(delay.Seconds()))
	if seconds <= 0 {
		return "0s"
	}
	return strconv.Itoa(seconds) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func (p *QStashPublisher) curlPreview(pr publishRequest) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(pr.publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	if p.retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(p.retries))
	}
	if pr.delay != "0s" {
		appendHeader("Upstash-Delay: " + pr.delay)
	}
	if pr.dedupID != "" {
		appendHeader("Upstash-Deduplication-Id: " + pr.dedupID)
	}
	if p.internalJobToken != "" {
		appendHeader("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(truncateForLog(string(pr.body), 4096)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
