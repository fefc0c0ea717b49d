package cashbarber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

const (
	DefaultBaseURL = "https://api.cashbarber.com.br/api/mrhudson/web"

	defaultTimeout  = 15 * time.Second
	defaultMaxPages = 100

	pathAuth     = "/auth"
	pathBookings = "/agendamentos"
	pathList     = "/agendamentos/list"
)

var tracer = otel.Tracer("cashbarber.internal.cashbarber")

// RequestObserver receives the outcome of every remote call.
type RequestObserver interface {
	ObserveRemoteCall(operation string, status int, seconds float64)
}

// Client talks to the CashBarber web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	observer   RequestObserver
	maxPages   int
	dryRun     bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithObserver reports remote call latency and status.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithMaxPages bounds how many listing pages are followed.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithDryRun makes CreateBooking log the request and return a fake payload
// without calling the API. Authentication and listing still hit the API.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// NewClient creates a CashBarber client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		maxPages:   defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	ctx, span := tracer.Start(ctx, "cashbarber.authenticate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body := authRequest{
		Email:                creds.Email,
		Password:             creds.Password,
		PasswordConfirmation: creds.Password,
	}
	status, raw, err := c.doJSON(ctx, "auth", http.MethodPost, c.baseURL+pathAuth, "", body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, apperr.Wrap(apperr.KindAuth, err, "auth request failed")
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if !isSuccess(status) {
		e := apperr.Remote(apperr.KindAuth, status, remoteMessage(raw, fmt.Sprintf("Auth failed: %d", status)), raw)
		span.SetStatus(codes.Error, e.Message)
		return nil, e
	}

	var out authResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, err, "decode auth response")
	}
	if strings.TrimSpace(out.Token) == "" {
		e := apperr.Remote(apperr.KindAuth, status, "Auth response missing token", raw)
		span.SetStatus(codes.Error, e.Message)
		return nil, e
	}

	c.logger.Debug("cashbarber: authenticated", "email", creds.Email)
	return &Session{Token: out.Token, User: out.User}, nil
}

// doJSON sends body (if any) as JSON and returns the status and raw
// response body. Only transport and encoding failures are returned as errors.
func (c *Client) doJSON(ctx context.Context, op, method, endpoint, token string, body any) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.observe(op, resp.StatusCode, start)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	if !isSuccess(resp.StatusCode) {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("cashbarber API non-2xx response", "operation", op, "status", resp.StatusCode, "body", msg)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRemoteCall(op, status, time.Since(start).Seconds())
}

// resolve turns a next-page pointer into an absolute URL. Relative pointers
// are taken relative to the page that carried them.
func resolve(current, next string) (string, error) {
	ref, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// remoteMessage picks the human message out of an error body.
func remoteMessage(raw []byte, fallback string) string {
	var eb errorBody
	if len(raw) > 0 && json.Unmarshal(raw, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return fallback
}
