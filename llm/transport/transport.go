// Package transport issues the HTTP exchange for an encoded request:
// bearer authentication, per-operation timeouts, bounded retry with
// exponential backoff, and typed failure classification.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/llmkit-go/llmkit/internal/metrics"
	"github.com/llmkit-go/llmkit/internal/tlsutil"
	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/retry"
)

// DefaultBaseURL targets the xAI API; any OpenAI-compatible endpoint
// works. Override via Config.BaseURL or the LLMKIT_BASE_URL environment
// variable (handled by llm/client).
const DefaultBaseURL = "https://api.x.ai"

// Per-operation timeout defaults. Image generation is the slowest
// operation and gets the longest budget.
const (
	DefaultChatTimeout  = 60 * time.Second
	DefaultImageTimeout = 120 * time.Second
	DefaultFileTimeout  = 60 * time.Second
)

// Response is the raw outcome of a successful (2xx) exchange. Decoding
// into result variants happens in llm/decode.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Doer executes one encoded request. The concrete implementation is
// *HTTP; tests substitute spies.
type Doer interface {
	Do(ctx context.Context, enc *request.Encoded) (*Response, error)
}

// Streamer is implemented by transports that can hand the caller the raw
// response body for server-sent event parsing.
type Streamer interface {
	Stream(ctx context.Context, enc *request.Encoded) (io.ReadCloser, error)
}

// Config tunes the HTTP transport. The zero value gets sensible defaults.
type Config struct {
	BaseURL      string
	ChatTimeout  time.Duration
	ImageTimeout time.Duration
	FileTimeout  time.Duration
	Retry        retry.Policy
	// RateLimit caps outbound requests per second across all operations;
	// zero means unlimited.
	RateLimit float64
	Logger    *zap.Logger
	// HTTPClient overrides the hardened default, mainly for tests.
	HTTPClient *http.Client
}

// HTTP is the production transport. It holds the shared credential and
// connection configuration; no other state survives a call.
type HTTP struct {
	creds   llm.Credentials
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

var (
	_ Doer     = (*HTTP)(nil)
	_ Streamer = (*HTTP)(nil)
)

// New creates an HTTP transport around the given credentials.
func New(creds llm.Credentials, cfg Config) *HTTP {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = DefaultChatTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = DefaultImageTimeout
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = DefaultFileTimeout
	}
	if cfg.Retry == (retry.Policy{}) {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		// Timeouts are applied per attempt through the context, not on
		// the client, so one client serves all operation kinds.
		client = tlsutil.SecureHTTPClient(0)
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &HTTP{
		creds:   creds,
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		logger:  cfg.Logger.With(zap.String("component", "transport")),
		metrics: metrics.Default(),
		tracer:  otel.Tracer("llmkit/transport"),
	}
}

// Do sends the encoded request, retrying transient failures (connection
// errors, timeouts, HTTP 429 and 5xx) per the configured policy.
// Non-retryable statuses fail immediately with an ErrAPI failure; a
// transient condition that survives every attempt surfaces as
// ErrTransport.
func (t *HTTP) Do(ctx context.Context, enc *request.Encoded) (*Response, error) {
	ctx, span := t.tracer.Start(ctx, "llm."+string(enc.Op),
		trace.WithAttributes(
			attribute.String("http.method", enc.Method),
			attribute.String("url.path", enc.Path),
		))
	defer span.End()

	start := time.Now()
	attempts := 0
	lastStatus := 0

	resp, err := retry.Do(ctx, t.cfg.Retry, t.logger, func(attempt int) (*Response, error) {
		attempts = attempt
		if attempt > 1 {
			t.metrics.ObserveRetry(string(enc.Op))
		}
		r, attemptErr := t.once(ctx, enc)
		if r != nil {
			lastStatus = r.Status
		}
		return r, attemptErr
	})

	span.SetAttributes(
		attribute.Int("llm.attempts", attempts),
		attribute.Int("http.status_code", lastStatus),
	)
	t.metrics.ObserveRequest(string(enc.Op), lastStatus, time.Since(start))

	if err != nil {
		span.RecordError(err)
		// A retryable provider status that exhausted the retry budget is a
		// transport-level failure; the last status stays attached.
		if llm.IsRetryable(err) && llm.KindOf(err) == llm.ErrAPI {
			wrapped := llm.Transportf(err, "request failed after %d attempts: %s", attempts, err)
			wrapped.HTTPStatus = lastStatus
			wrapped.Op = enc.Op
			return nil, wrapped
		}
		return nil, err
	}
	return resp, nil
}

// once performs a single attempt: rate-limiter wait, per-operation
// timeout, one HTTP exchange, status classification.
func (t *HTTP) once(ctx context.Context, enc *request.Encoded) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, llm.Transportf(err, "rate limiter wait: %v", err)
		}
	}

	ctx, cancel := t.withTimeout(ctx, enc.Op)
	defer cancel()

	httpReq, err := t.newRequest(ctx, enc)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Debug("request attempt failed",
			zap.String("op", string(enc.Op)),
			zap.String("path", enc.Path),
			zap.Error(err))
		e := llm.Transportf(err, "%s %s: %v", enc.Method, enc.Path, err)
		e.Op = enc.Op
		return nil, e
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrorMessage(resp.Body)
		apiErr := llm.APIError(resp.StatusCode, msg)
		apiErr.Op = enc.Op
		t.logger.Debug("provider returned error status",
			zap.String("op", string(enc.Op)),
			zap.Int("status", resp.StatusCode),
			zap.Bool("retryable", apiErr.Retryable))
		// Carry the status so Do can report it even when the body is gone.
		return &Response{Status: resp.StatusCode}, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e := llm.Transportf(err, "reading response body: %v", err)
		e.Op = enc.Op
		return &Response{Status: resp.StatusCode}, e
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// Stream opens a streaming exchange and returns the raw body once a 2xx
// status is confirmed. Only the connection phase is retried; mid-stream
// failures belong to the caller.
func (t *HTTP) Stream(ctx context.Context, enc *request.Encoded) (io.ReadCloser, error) {
	return retry.Do(ctx, t.cfg.Retry, t.logger, func(attempt int) (io.ReadCloser, error) {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, llm.Transportf(err, "rate limiter wait: %v", err)
			}
		}

		httpReq, err := t.newRequest(ctx, enc)
		if err != nil {
			return nil, err
		}

		resp, err := t.client.Do(httpReq)
		if err != nil {
			e := llm.Transportf(err, "%s %s: %v", enc.Method, enc.Path, err)
			e.Op = enc.Op
			return nil, e
		}
		if resp.StatusCode >= 400 {
			defer resp.Body.Close()
			msg := readErrorMessage(resp.Body)
			apiErr := llm.APIError(resp.StatusCode, msg)
			apiErr.Op = enc.Op
			return nil, apiErr
		}
		return resp.Body, nil
	})
}

func (t *HTTP) newRequest(ctx context.Context, enc *request.Encoded) (*http.Request, error) {
	var body io.Reader
	if len(enc.Body) > 0 {
		body = bytes.NewReader(enc.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, enc.Method, t.endpoint(enc.Path), body)
	if err != nil {
		return nil, llm.Transportf(err, "failed to create request: %v", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.creds.Token())
	if enc.ContentType != "" {
		httpReq.Header.Set("Content-Type", enc.ContentType)
	}
	return httpReq, nil
}

// withTimeout applies the per-operation default deadline unless the
// caller already set one.
func (t *HTTP) withTimeout(ctx context.Context, op llm.Op) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	var d time.Duration
	switch op {
	case llm.OpImage:
		d = t.cfg.ImageTimeout
	case llm.OpFile:
		d = t.cfg.FileTimeout
	default:
		d = t.cfg.ChatTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (t *HTTP) endpoint(path string) string {
	return strings.TrimRight(t.cfg.BaseURL, "/") + path
}
