// Package remote is the HTTP client for the study store served by cmd/server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"studytracker/backend/internal/config"
	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/model"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the default client built from the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(cfg config.ClientConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        zap.NewNop(),
		token:      cfg.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("remote")
	return c
}

// SetToken swaps the bearer token used for store calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Register creates an account and keeps the issued token for later calls.
func (c *Client) Register(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/api/auth/register", email, password)
}

// Login keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*model.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.User, nil
}

type subjectBody struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type subjectsResponse struct {
	Subjects []model.Subject `json:"subjects"`
}

type sessionsResponse struct {
	Sessions []model.StudySession `json:"sessions"`
}

type goalResponse struct {
	Goal model.GoalJSON `json:"goal"`
}

func (c *Client) AddSubject(ctx context.Context, id, name, color string) error {
	return c.do(ctx, http.MethodPost, "/api/subjects", subjectBody{ID: id, Name: name, Color: color}, nil)
}

func (c *Client) EditSubject(ctx context.Context, id, name, color string) error {
	return c.do(ctx, http.MethodPut, "/api/subjects/"+url.PathEscape(id), subjectBody{Name: name, Color: color}, nil)
}

func (c *Client) RemoveSubject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/subjects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetSubjects(ctx context.Context) ([]model.Subject, error) {
	var resp subjectsResponse
	if err := c.do(ctx, http.MethodGet, "/api/subjects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subjects, nil
}

func (c *Client) RecordSession(ctx context.Context, session model.StudySession) error {
	return c.do(ctx, http.MethodPost, "/api/sessions", session, nil)
}

func (c *Client) GetStudySessions(ctx context.Context) ([]model.StudySession, error) {
	return c.sessions(ctx, "/api/sessions")
}

func (c *Client) GetSubjectSessions(ctx context.Context, subjectID string) ([]model.StudySession, error) {
	return c.sessions(ctx, "/api/subjects/"+url.PathEscape(subjectID)+"/sessions")
}

func (c *Client) GetWeeklySessions(ctx context.Context, weekStart, weekEnd model.Timestamp) ([]model.StudySession, error) {
	params := url.Values{}
	params.Set("start", strconv.FormatInt(int64(weekStart), 10))
	params.Set("end", strconv.FormatInt(int64(weekEnd), 10))
	return c.sessions(ctx, "/api/sessions/weekly?"+params.Encode())
}

func (c *Client) sessions(ctx context.Context, path string) ([]model.StudySession, error) {
	var resp sessionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetDailyGoal returns nil when no goal has been set.
func (c *Client) GetDailyGoal(ctx context.Context) (model.Goal, error) {
	var resp goalResponse
	if err := c.do(ctx, http.MethodGet, "/api/goal", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Goal.Goal, nil
}

func (c *Client) SetDailyGoal(ctx context.Context, goal model.Goal) error {
	return c.do(ctx, http.MethodPut, "/api/goal", model.GoalJSON{Goal: goal}, nil)
}

func (c *Client) SetTimeBasedGoal(ctx context.Context, hours int64) error {
	return c.do(ctx, http.MethodPut, "/api/goal/time", map[string]int64{"hours": hours}, nil)
}

func (c *Client) SetTaskBasedGoal(ctx context.Context, tasks int64) error {
	return c.do(ctx, http.MethodPut, "/api/goal/task", map[string]int64{"tasks": tasks}, nil)
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx answers
// come back as *apperrors.APIError carrying the response status; an
// unreachable store is reported as apperrors.Unavailable.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.Unavailable(fmt.Sprintf("%s %s: %v", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.log.Debug("store rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *apperrors.APIError {
	var envelope struct {
		Error *apperrors.APIError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		return apperrors.New(resp.StatusCode, "http_error", http.StatusText(resp.StatusCode))
	}
	envelope.Error.Status = resp.StatusCode
	return envelope.Error
}
