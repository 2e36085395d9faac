// Package api is the typed HTTP client for the CardioCare backend: the
// auth service, the user service, and the prediction/assessment service.
//
// All authenticated calls send "Authorization: Bearer <token>". The token
// is read through a TokenSource on every request so the client always
// sees the session manager's current credential. Idempotent reads are
// retried with backoff; mutations are issued exactly once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/retry"
)

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource func() string

// Client talks to the remote services.
type Client struct {
	baseURL     string
	http        *http.Client
	token       TokenSource
	logger      *slog.Logger
	getAttempts int
	getBackoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets the bearer token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithGetRetries tunes retry behavior for idempotent GETs.
func WithGetRetries(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.getAttempts = attempts
		c.getBackoff = backoff
	}
}

// New creates a client for the service rooted at baseURL
// (e.g. "http://localhost:5000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 15 * time.Second},
		token:       func() string { return "" },
		logger:      slog.Default(),
		getAttempts: 3,
		getBackoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("login response missing token or user")
	}
	return &out, nil
}

// Register creates an account and returns the initial session credential.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	body := map[string]string{"fullName": fullName, "email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &out, false); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("register response missing token or user")
	}
	return &out, nil
}

// Me fetches the authoritative profile for the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.get(ctx, "/users/me", &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("profile response missing user")
	}
	return out.User, nil
}

// UpdateMe sends a profile patch and returns the server's normalized
// representation, which replaces the stored profile wholesale.
func (c *Client) UpdateMe(ctx context.Context, patch UserPatch) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/users/me", patch, &out, true); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("profile update response missing user")
	}
	return out.User, nil
}

// CreateAssessment submits the payload and returns the opaque assessment id.
// Never retried: a duplicate submission would store a duplicate assessment.
func (c *Client) CreateAssessment(ctx context.Context, data map[string]string) (string, error) {
	body := map[string]any{"assessment_data": data}
	var out struct {
		AssessmentID string `json:"assessmentId"`
	}
	if err := c.do(ctx, http.MethodPost, "/assessments", body, &out, true); err != nil {
		return "", err
	}
	if out.AssessmentID == "" {
		return "", fmt.Errorf("assessment response missing assessmentId")
	}
	return out.AssessmentID, nil
}

// GetAssessment fetches one stored assessment with its prediction.
func (c *Client) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	var out struct {
		Assessment *Assessment `json:"assessment"`
	}
	if err := c.get(ctx, "/assessments/"+id, &out); err != nil {
		return nil, err
	}
	if out.Assessment == nil {
		return nil, fmt.Errorf("assessment response missing assessment")
	}
	return out.Assessment, nil
}

// ListAssessments fetches the user's history, newest first (server order).
func (c *Client) ListAssessments(ctx context.Context) ([]Assessment, error) {
	var out struct {
		Assessments []Assessment `json:"assessments"`
	}
	if err := c.get(ctx, "/assessments", &out); err != nil {
		return nil, err
	}
	return out.Assessments, nil
}

// get performs an idempotent GET with retries. Auth failures and 4xx
// rejections are permanent; transport failures and 5xx are retried.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(ctx, c.getAttempts, c.getBackoff, func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out, true)
		if err == nil {
			return nil
		}
		switch Classify(err) {
		case KindNetworkUnavailable:
			return err
		case KindServerRejected:
			var se *ServerError
			if asServerError(err, &se) && se.Status >= 500 {
				return err
			}
			return retry.Permanent(err)
		default:
			return retry.Permanent(err)
		}
	})
}

func asServerError(err error, target **ServerError) bool {
	se, ok := err.(*ServerError)
	if ok {
		*target = se
	}
	return ok
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg := serverMessage(raw)
		c.logger.Debug("request unauthenticated", "method", method, "path", path, "status", resp.StatusCode)
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, ErrUnauthenticated)
		}
		return ErrUnauthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// serverMessage extracts the backend's {"message": ...} field, falling
// back to {"error": ...}.
func serverMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
