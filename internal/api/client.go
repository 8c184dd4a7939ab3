// Package api is the REST client for the banking API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"banking-client/internal/common/config"
	"banking-client/internal/common/errors"
	commonhttp "banking-client/internal/common/http"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/metrics"
	"banking-client/internal/common/validation"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	PublicPaths []string
	SignInPath  string

	Session   *session.Manager
	Navigator router.Navigator
	// Notifier shows the permission-denied notice for every 403 response.
	Notifier notice.Notifier
	// OnPermissionDenied is called for every 403 response.
	OnPermissionDenied func(path string)
	Logger             logger.Logger
	HTTPClient         *commonhttp.Client
}

// OptionsFromConfig fills the transport settings from cfg.
func OptionsFromConfig(cfg config.APIConfig) Options {
	return Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     config.GetDuration(cfg.Timeout),
		PublicPaths: cfg.PublicPaths,
		SignInPath:  cfg.SignInPath,
	}
}

// Client attaches the bearer token and applies the 401/403 rules.
type Client struct {
	baseURL     string
	publicPaths []string
	signInPath  string
	session     *session.Manager
	navigator   router.Navigator
	notifier    notice.Notifier
	onForbidden func(path string)
	logger      logger.Logger
	http        *commonhttp.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if len(opts.PublicPaths) == 0 {
		opts.PublicPaths = config.DefaultPublicPaths
	}
	if opts.SignInPath == "" {
		opts.SignInPath = "/auth/signin"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = commonhttp.NewClient(opts.Timeout)
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		publicPaths: opts.PublicPaths,
		signInPath:  opts.SignInPath,
		session:     opts.Session,
		navigator:   opts.Navigator,
		notifier:    notice.OrDiscard(opts.Notifier),
		onForbidden: opts.OnPermissionDenied,
		logger:      logger.OrDefault(opts.Logger),
		http:        httpClient,
	}, nil
}

// IsPublicPath reports whether path is an auth endpoint sent without a token.
func (c *Client) IsPublicPath(path string) bool {
	for _, p := range c.publicPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// request describes one call. endpoint is a low-cardinality name for metrics.
type request struct {
	method   string
	path     string
	endpoint string
	body     interface{}
	schema   *validation.PayloadSchema
}

// do sends req and decodes a 2xx body into out. out may be nil, or a
// *[]byte to receive the raw body.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	start := time.Now()
	status, body, err := c.send(ctx, req)
	metrics.APIRequestDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.APIRequests.WithLabelValues(req.endpoint, "transport_error").Inc()
		c.logger.Warn("Request failed", map[string]interface{}{
			"method": req.method,
			"path":   req.path,
			"error":  err.Error(),
		})
		return classifyTransport(err)
	}
	metrics.APIRequests.WithLabelValues(req.endpoint, strconv.Itoa(status)).Inc()

	if status < 200 || status > 299 {
		return c.handleErrorStatus(ctx, req, status, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	if req.schema != nil {
		if err := req.schema.Validate(body); err != nil {
			return errors.NewMalformedPayloadError(req.schema.Name(), err.Error())
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewMalformedPayloadError(req.endpoint, err.Error())
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request) (int, []byte, error) {
	var reader io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequest(req.method, c.baseURL+req.path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if !c.IsPublicPath(req.path) {
		if token := c.session.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.DoWithContext(ctx, httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) handleErrorStatus(ctx context.Context, req request, status int, body []byte) error {
	message := serverMessage(body)

	switch status {
	case http.StatusUnauthorized:
		if strings.Contains(req.path, c.signInPath) {
			return errors.NewBadCredentialsError().WithMetadata("status", status)
		}
		c.logger.Warn("Session expired, signing out", map[string]interface{}{"path": req.path})
		_ = c.session.Clear(ctx, session.ReasonUnauthorized)
		if c.navigator != nil {
			c.navigator.Navigate(ctx, router.Login, router.State{})
		}
		return errors.NewSessionExpiredError(req.path).WithMetadata("status", status)

	case http.StatusForbidden:
		c.logger.Error("Permission denied", map[string]interface{}{"path": req.path})
		denied := errors.NewPermissionDeniedError(req.path).WithMetadata("status", status).WithMetadata("message", message)
		c.notifier.Notify(notice.Error(denied.Message))
		if c.onForbidden != nil {
			c.onForbidden(req.path)
		}
		return denied
	}

	return errors.NewAPIError(status, message)
}

// serverMessage extracts {"message": "..."} from an error body, falling back
// to short plain-text bodies.
func serverMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		return parsed.Error
	}
	if len(trimmed) <= 200 && trimmed[0] != '<' {
		return string(trimmed)
	}
	return ""
}

func classifyTransport(err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewRequestTimeoutError(err)
	}
	return errors.NewTransportFailureError(err)
}
