package apiclient

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

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// TokenSource hands out the bearer token for the current session. It returns
// internal.ErrAuthMissing when nobody is logged in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

func NewClient(config Config, tokens TokenSource, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authorized reports whether a request would be sent right now.
func (c *Client) Authorized(ctx context.Context) error {
	if c.tokens == nil {
		return internal.ErrAuthMissing
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return internal.ErrAuthMissing
	}
	return nil
}

// errorBody is what the backend returns for any non 2xx status.
type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	anonymous   bool
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	var token string
	if !r.anonymous {
		if err := c.Authorized(ctx); err != nil {
			return nil, err
		}
		token, _ = c.tokens.Token(ctx)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, internal.NewInternalError("failed to create request", err)
	}

	traceID := internal.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	req.Header.Set(TraceHeader, traceID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs the request and converts transport failures and error
// statuses into tagged errors. The caller owns the body on success.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("APIClient: request failed",
			"method", r.method,
			"path", r.path,
			"trace_id", req.Header.Get(TraceHeader),
			"error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, internal.NewNetworkError("Request cancelled", ctxErr)
		}
		return nil, internal.NewNetworkError("Unable to reach the server", err)
	}

	c.logger.Debug("APIClient: request completed",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"trace_id", req.Header.Get(TraceHeader),
		"duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if len(body.Details) > 0 {
			appErr := internal.NewValidationFieldsError(body.Details)
			appErr.Message = message
			appErr.StatusCode = resp.StatusCode
			return appErr
		}
		appErr := internal.NewValidationError(message, internal.ErrCodeValidationFailed)
		appErr.StatusCode = resp.StatusCode
		return appErr
	case http.StatusUnauthorized:
		return internal.NewAuthMissingError(message, internal.ErrCodeUnauthorized)
	case http.StatusConflict:
		code := internal.ErrCodeConflict
		if body.Code == string(internal.ErrCodeRecordInUse) || body.Code == string(internal.ErrCodeSystemOwned) {
			code = internal.ErrorCode(body.Code)
		}
		return internal.NewBusinessRuleError(message, code)
	default:
		return internal.NewHTTPError(resp.StatusCode, message)
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	r := request{method: method, path: path, query: query}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return internal.NewInternalError("failed to encode request", err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return c.roundTrip(ctx, r, out)
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		appErr := internal.NewHTTPError(resp.StatusCode, "Unexpected response from server")
		appErr.Code = internal.ErrCodeUnexpectedBody
		return appErr.WithCause(err)
	}
	return nil
}

// GetJSON and PutJSON reach endpoints that are not resource collections.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, in, out)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// Login exchanges credentials for tokens. It is the only call that goes out
// without a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (Tokens, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return Tokens{}, internal.NewInternalError("failed to encode credentials", err)
	}

	var tokens Tokens
	err = c.roundTrip(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        bytes.NewReader(data),
		contentType: "application/json",
		anonymous:   true,
	}, &tokens)
	if err != nil {
		return Tokens{}, err
	}
	if tokens.AccessToken == "" {
		appErr := internal.NewHTTPError(http.StatusOK, "Login response did not include a token")
		appErr.Code = internal.ErrCodeUnexpectedBody
		return Tokens{}, appErr
	}
	return tokens, nil
}

// Profile is the signed in user as the backend reports it.
type Profile struct {
	ID         resource.ID `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Department string      `json:"department,omitempty"`
}

// Me returns the user behind the current session.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
