package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/ideahub/config"
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

const maxBodyBytes = 1 << 20

// TokenSource supplies the bearer token for each request; empty means anonymous.
type TokenSource interface {
	Token() string
}

type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// RateLimit is requests per second; zero disables throttling.
	RateLimit float64
	Burst     int

	HTTPClient *http.Client
	Tokens     TokenSource

	// OnUnauthorized runs after any 401 so the session can be dropped.
	OnUnauthorized func()
}

// Client talks to the IdeaHub REST API. Calls are never retried: every
// failure is terminal for that attempt.
type Client struct {
	baseURL        string
	userAgent      string
	timeout        time.Duration
	limiter        *rate.Limiter
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	tracer         trace.Tracer
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:        baseURL,
		userAgent:      strings.TrimSpace(opts.UserAgent),
		timeout:        timeout,
		limiter:        limiter,
		httpClient:     hc,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		tracer:         otel.Tracer("github.com/d60-Lab/ideahub/internal/api/client"),
	}, nil
}

func NewFromConfig(cfg *config.Config, tokens TokenSource, onUnauthorized func()) (*Client, error) {
	return New(Options{
		BaseURL:        cfg.API.BaseURL,
		UserAgent:      cfg.API.UserAgent,
		Timeout:        cfg.API.Timeout,
		RateLimit:      cfg.API.RateLimit,
		Burst:          cfg.API.Burst,
		Tokens:         tokens,
		OnUnauthorized: onUnauthorized,
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// ---- ideas ----

func (c *Client) ListIdeas(ctx context.Context, sort string) ([]model.Idea, error) {
	q := url.Values{}
	if s := strings.TrimSpace(sort); s != "" {
		q.Set("sort", s)
	}
	var out []model.Idea
	if err := c.doJSON(ctx, http.MethodGet, "/ideas", "/ideas", q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Idea{}
	}
	return out, nil
}

func (c *Client) GetIdea(ctx context.Context, id int64) (model.Idea, error) {
	var out model.Idea
	err := c.doJSON(ctx, http.MethodGet, ideaPath(id), "/ideas/{id}", nil, nil, &out)
	return out, err
}

func (c *Client) CreateIdea(ctx context.Context, in model.IdeaInput) (model.Idea, error) {
	var out model.Idea
	err := c.doJSON(ctx, http.MethodPost, "/ideas", "/ideas", nil, in, &out)
	return out, err
}

func (c *Client) UpdateIdea(ctx context.Context, id int64, in model.IdeaInput) (model.Idea, error) {
	var out model.Idea
	err := c.doJSON(ctx, http.MethodPut, ideaPath(id), "/ideas/{id}", nil, in, &out)
	return out, err
}

func (c *Client) DeleteIdea(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, ideaPath(id), "/ideas/{id}", nil, nil, nil)
}

// ---- ratings ----

func (c *Client) RateIdea(ctx context.Context, id int64, in model.RatingInput) (model.Idea, error) {
	var out model.Idea
	err := c.doJSON(ctx, http.MethodPost, ideaPath(id)+"/rate", "/ideas/{id}/rate", nil, in, &out)
	return out, err
}

func (c *Client) HasRated(ctx context.Context, id int64) (bool, error) {
	var out bool
	err := c.doJSON(ctx, http.MethodGet, ideaPath(id)+"/has-rated", "/ideas/{id}/has-rated", nil, nil, &out)
	return out, err
}

// ---- comments ----

func (c *Client) ListComments(ctx context.Context, ideaID int64) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.doJSON(ctx, http.MethodGet, ideaPath(ideaID)+"/comments", "/ideas/{id}/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Comment{}
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, ideaID int64, text string) (model.Comment, error) {
	var out model.Comment
	err := c.doJSON(ctx, http.MethodPost, ideaPath(ideaID)+"/comments", "/ideas/{id}/comments", nil, model.CommentInput{Text: text}, &out)
	return out, err
}

// ---- auth ----

// Login exchanges credentials for a bearer token. The server answers with the
// bare token, either as plain text or as a JSON string.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var raw json.RawMessage
	body := model.Credentials{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "/auth/login", nil, body, &raw); err != nil {
		return "", err
	}
	token := decodeToken(raw)
	if token == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "login returned an empty token")
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (model.User, error) {
	var out model.User
	body := model.Credentials{Username: username, Email: email, Password: password}
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", "/auth/register", nil, body, &out)
	return out, err
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, in model.ProfileInput) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodPut, "/auth/me", "/auth/me", nil, in, &out)
	return out, err
}

// ---------------- HTTP helpers ----------------

func ideaPath(id int64) string { return "/ideas/" + strconv.FormatInt(id, 10) }

func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if tok := strings.TrimSpace(c.tokens.Token()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path, route string, query url.Values, body any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperr.Wrap(apperr.KindTransport, err)
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		reader = &buf
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx2, method, target, reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	c.setHeaders(req, requestID)
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.String("ideahub.request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.String("request_id", requestID), zap.Error(err))
		return apperr.Wrap(apperr.KindTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := parseHTTPError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return herr
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if rm, ok := out.(*json.RawMessage); ok {
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, route, err)
	}
	return nil
}

func decodeToken(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil && obj.Token != "" {
		return strings.TrimSpace(obj.Token)
	}
	return strings.TrimSpace(string(trimmed))
}
