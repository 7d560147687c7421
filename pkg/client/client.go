package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/cmsdash/pkg/domain"
)

// maxBody caps how much of any response is read.
const maxBody = 16 << 20

// DefaultAuthPath is the authentication endpoint relative to the base URL.
const DefaultAuthPath = "/auth"

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Refresher is implemented by token sources that can recover from a
// rejected token. rejected is the token the failed call carried; Refresh
// returns the token to retry with.
type Refresher interface {
	Refresh(ctx context.Context, rejected string) (string, error)
}

// Client is the CMS API client.
type Client struct {
	baseURL    string
	authPath   string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAuthPath overrides the authentication endpoint path.
func WithAuthPath(p string) Option {
	return func(c *Client) { c.authPath = p }
}

// New creates a new API client with no credential attached.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		authPath: DefaultAuthPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAuth returns a copy of c that attaches the token from src to every call.
// If src also implements Refresher, a rejected token is refreshed once and
// the call replayed.
func (c *Client) WithAuth(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges credentials for a bearer token. It never sends an
// Authorization header.
func (c *Client) Authenticate(ctx context.Context, identifier, secret string) (*domain.AuthResult, error) {
	body := map[string]string{"identifier": identifier, "password": secret}
	data, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      c.authPath,
		body:      jsonBody(body),
		anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("client.Authenticate: %w", err)
	}
	var res domain.AuthResult
	if err := decode(data, &res); err != nil {
		return nil, fmt.Errorf("client.Authenticate: %w", err)
	}
	if res.JWT == "" {
		return nil, fmt.Errorf("client.Authenticate: %w", ErrNoToken)
	}
	return &res, nil
}

// RefreshToken exchanges token for a fresh one at path.
func (c *Client) RefreshToken(ctx context.Context, path, token string) (string, error) {
	data, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      path,
		anonymous: true,
		token:     token,
	})
	if err != nil {
		return "", fmt.Errorf("client.RefreshToken: %w", err)
	}
	var res domain.AuthResult
	if err := decode(data, &res); err != nil {
		return "", fmt.Errorf("client.RefreshToken: %w", err)
	}
	if res.JWT == "" {
		return "", fmt.Errorf("client.RefreshToken: %w", ErrNoToken)
	}
	return res.JWT, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// GraphQL runs a query or mutation and decodes its data object into out.
// A non-empty errors array is returned as *GraphQLError.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	var resp graphQLResponse
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/graphql",
		body:   jsonBody(graphQLRequest{Query: query, Variables: variables}),
		inspect: func(data []byte) error {
			resp = graphQLResponse{}
			if err := decode(data, &resp); err != nil {
				return err
			}
			if len(resp.Errors) == 0 {
				return nil
			}
			gqlErr := &GraphQLError{}
			for _, e := range resp.Errors {
				gqlErr.Messages = append(gqlErr.Messages, e.Message)
				if e.Extensions.Code != "" {
					gqlErr.Codes = append(gqlErr.Codes, e.Extensions.Code)
				}
			}
			return gqlErr
		},
	})
	if err != nil {
		return fmt.Errorf("client.GraphQL: %w", err)
	}
	if out != nil && len(resp.Data) > 0 {
		if err := decode(resp.Data, out); err != nil {
			return fmt.Errorf("client.GraphQL: %w", err)
		}
	}
	return nil
}

// Upload sends one file as the "files" field of a multipart form and returns
// the created file records.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) ([]domain.FileRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: read file: %w", err)
	}
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/upload",
		body: func() (io.Reader, string, error) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("files", filename)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(content); err != nil {
				return nil, "", err
			}
			if err := mw.Close(); err != nil {
				return nil, "", err
			}
			return &buf, mw.FormDataContentType(), nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("client.Upload: %w", err)
	}
	var files []domain.FileRecord
	if err := decode(data, &files); err != nil {
		return nil, fmt.Errorf("client.Upload: %w", err)
	}
	return files, nil
}

// ListFiles returns metadata for every uploaded file.
func (c *Client) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/file"})
	if err != nil {
		return nil, fmt.Errorf("client.ListFiles: %w", err)
	}
	var files []domain.FileRecord
	if err := decode(data, &files); err != nil {
		return nil, fmt.Errorf("client.ListFiles: %w", err)
	}
	return files, nil
}

// request describes one outbound call. body is a builder so the call can be
// replayed after a token refresh.
type request struct {
	method    string
	path      string
	body      func() (io.Reader, string, error)
	anonymous bool   // never attach the session token
	token     string // explicit token for anonymous calls
	inspect   func(data []byte) error
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if r.anonymous {
		return c.send(ctx, r, r.token)
	}
	token := c.currentToken()
	data, err := c.send(ctx, r, token)
	if err == nil {
		return data, nil
	}
	switch {
	case token == "" && (IsUnauthorized(err) || IsForbidden(err)):
		// Nothing was sent, so the call needs a session rather than a role.
		return nil, &AuthorizationError{Err: err}
	case IsForbidden(err):
		return nil, &PermissionError{Err: err}
	case !IsUnauthorized(err):
		return nil, err
	}
	ref, ok := c.tokens.(Refresher)
	if !ok {
		return nil, &AuthorizationError{Err: err}
	}
	fresh, refreshErr := ref.Refresh(ctx, token)
	if refreshErr != nil || fresh == "" {
		return nil, &AuthorizationError{Err: err, RefreshErr: refreshErr}
	}
	c.logger.Info("retrying after token refresh", "method", r.method, "path", r.path)
	data, err = c.send(ctx, r, fresh)
	switch {
	case err == nil:
		return data, nil
	case IsForbidden(err):
		return nil, &PermissionError{Err: err}
	case IsUnauthorized(err):
		return nil, &AuthorizationError{Err: err}
	}
	return nil, err
}

func (c *Client) currentToken() string {
	if c.tokens == nil {
		return ""
	}
	tok, ok := c.tokens.Token()
	if !ok {
		return ""
	}
	return tok
}

func (c *Client) send(ctx context.Context, r request, token string) ([]byte, error) {
	var reqBody io.Reader
	var contentType string
	if r.body != nil {
		var err error
		reqBody, contentType, err = r.body()
		if err != nil {
			return nil, fmt.Errorf("build body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", r.method, "path", r.path, "request_id", reqID, "error", err)
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.logger.Debug("request", "method", r.method, "path", r.path, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		if resp.StatusCode >= 400 {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
		}
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	if r.inspect != nil {
		if err := r.inspect(data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorMessage extracts the backend's message from an error body. It knows
// GraphQL errors arrays, {"error": "..."}, {"message": "..."},
// {"error": {"message": "..."}} and the nested
// {"message": [{"messages": [{"message": "..."}]}]} form.
func errorMessage(status int, body []byte) string {
	var shape struct {
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &shape) == nil {
		if len(shape.Errors) > 0 && shape.Errors[0].Message != "" {
			return shape.Errors[0].Message
		}
		if s := rawMessage(shape.Message); s != "" {
			return s
		}
		if s := rawMessage(shape.Error); s != "" {
			return s
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(status)
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	var nested []struct {
		Messages []struct {
			Message string `json:"message"`
		} `json:"messages"`
	}
	if json.Unmarshal(raw, &nested) == nil {
		var msgs []string
		for _, n := range nested {
			for _, m := range n.Messages {
				if m.Message != "" {
					msgs = append(msgs, m.Message)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
