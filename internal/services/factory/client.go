package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

const (
	defaultShortTimeout = 30 * time.Second
	defaultLongTimeout  = 300 * time.Second
	maxErrorBody        = 4096
	requestIDHeader     = "X-Request-ID"
)

// Config captures the runtime settings required to talk to the video service.
type Config struct {
	BaseURL      string
	ShortTimeout time.Duration
	LongTimeout  time.Duration
}

// Client issues requests against the content-to-video service API.
type Client struct {
	base   *url.URL
	short  *http.Client
	long   *http.Client
	logger *slog.Logger
	newID  func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides both the short and long HTTP clients.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.short = client
			c.long = client
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDGenerator overrides how correlation identifiers are minted.
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient constructs a client for the given configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, services.Wrap(services.ErrConfiguration, "factory", "new client", "base url required", nil)
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "factory", "new client", "parse base url", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "factory", "new client", fmt.Sprintf("base url %q must include scheme and host", raw), nil)
	}
	short := cfg.ShortTimeout
	if short <= 0 {
		short = defaultShortTimeout
	}
	long := cfg.LongTimeout
	if long <= 0 {
		long = defaultLongTimeout
	}
	client := &Client{
		base:   base,
		short:  &http.Client{Timeout: short},
		long:   &http.Client{Timeout: long},
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "factory")
	return client, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// EnvelopeError is returned when the service answers with a status other than "ok".
type EnvelopeError struct {
	Operation string
	Status    string
	Message   string
}

func (e *EnvelopeError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "no message"
	}
	return fmt.Sprintf("%s: service returned %s: %s", e.Operation, e.Status, msg)
}

// ServiceMessage returns the message exactly as the service sent it.
func (e *EnvelopeError) ServiceMessage() string {
	return e.Message
}

// Unwrap classifies envelope failures as application errors.
func (e *EnvelopeError) Unwrap() error {
	return services.ErrApplication
}

// IsWarning reports whether err is a "warning" envelope, in which case the
// payload that accompanied it is still usable.
func IsWarning(err error) bool {
	var envErr *EnvelopeError
	return errors.As(err, &envErr) && envErr.Status == StatusWarning
}

type timeoutClass int

const (
	shortCall timeoutClass = iota
	longCall
)

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	class  timeoutClass
}

// call performs req and decodes the envelope payload into T. A nil payload
// with an ok status yields the zero value of T.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	var zero T
	op := req.method + " " + req.path

	endpoint := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		endpoint.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return zero, services.Wrap(services.ErrValidation, "factory", op, "encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		return zero, services.Wrap(services.ErrValidation, "factory", op, "build request", err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = c.newID()
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.short
	if req.class == longCall {
		httpClient = c.long
	}

	logger := logging.WithContext(services.WithRequestID(ctx, requestID), c.logger)
	started := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		logger.Debug("request failed", logging.String("op", op), logging.Error(err))
		return zero, services.Wrap(services.ErrTransport, "factory", op, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, services.Wrap(services.ErrTransport, "factory", op, "read response", err)
	}
	logger.Debug("request completed",
		logging.String("op", op),
		logging.Int("http_status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	var env Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr != nil || env.Status == "" {
		if resp.StatusCode >= http.StatusBadRequest {
			return zero, services.Wrap(services.ErrTransport, "factory", op,
				fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(raw)), nil)
		}
		if decodeErr == nil {
			decodeErr = errors.New("missing envelope status")
		}
		return zero, services.Wrap(services.ErrTransport, "factory", op, "decode response", decodeErr)
	}

	var data T
	if env.Data != nil {
		data = *env.Data
	}
	if env.Status != StatusOK {
		return data, &EnvelopeError{Operation: op, Status: env.Status, Message: env.Message}
	}
	return data, nil
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return "empty body"
	}
	return text
}
