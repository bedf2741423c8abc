package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	materna "github.com/materna-health/materna-go"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathMe       = "/auth/me"
	pathLogout   = "/auth/logout"
	pathRefresh  = "/auth/refresh"
)

// Client is the HTTP implementation of the root Gateway interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu            sync.RWMutex
	tokenSource   materna.TokenSource
	onAuthFailure func()
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client. Timeouts live there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the gateway logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a gateway client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// BindSession registers the session client as the bearer token source.
func (c *Client) BindSession(source materna.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenSource = source
}

// SetAuthFailureHandler registers the hook invoked whenever a request
// outside the login/register endpoints receives a 401/403-class response.
func (c *Client) SetAuthFailureHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthFailure = fn
}

// Login implements the Gateway interface.
func (c *Client) Login(ctx context.Context, creds materna.Credentials) (*materna.AuthPayload, error) {
	var payload materna.AuthPayload
	if err := c.do(ctx, http.MethodPost, pathLogin, creds, &payload, false); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Register implements the Gateway interface.
func (c *Client) Register(ctx context.Context, input materna.RegisterInput) (*materna.AuthPayload, error) {
	var payload materna.AuthPayload
	if err := c.do(ctx, http.MethodPost, pathRegister, input, &payload, false); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CurrentUser implements the Gateway interface.
func (c *Client) CurrentUser(ctx context.Context) (*materna.UserRecord, error) {
	var user materna.UserRecord
	if err := c.do(ctx, http.MethodGet, pathMe, nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout implements the Gateway interface. The backend call is best-effort;
// the session client swallows failures and wipes locally regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathLogout, nil, nil, true)
}

// Refresh implements the Gateway interface.
func (c *Client) Refresh(ctx context.Context) (*materna.AuthPayload, error) {
	var payload materna.AuthPayload
	if err := c.do(ctx, http.MethodPost, pathRefresh, nil, &payload, true); err != nil {
		return nil, err
	}
	return &payload, nil
}

type errorBody struct {
	Message string `json:"message"`
}

// do issues one request. hookOnAuthFailure gates the global auth-failure
// hook: login/register pass false because a 401 there is user feedback, not
// a dead session.
func (c *Client) do(ctx context.Context, method, path string, body, out any, hookOnAuthFailure bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "encode request body", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "build request", Cause: err}
	}

	requestID := materna.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	if deviceID := materna.DeviceIDFromContext(ctx); deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	source := c.tokenSource
	hook := c.onAuthFailure
	c.mu.RUnlock()

	if source != nil {
		if token := source.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error(), RequestID: requestID, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: "decode response body", RequestID: requestID, Cause: err}
		}
		return nil
	}

	apiErr := &APIError{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  requestID,
	}
	var eb errorBody
	if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil && eb.Message != "" {
		apiErr.Message = eb.Message
	}

	if apiErr.AuthFailure() && hookOnAuthFailure && hook != nil {
		c.logger.Warn("auth failure reported by backend, invoking session hook",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
		)
		hook()
	}

	return apiErr
}
