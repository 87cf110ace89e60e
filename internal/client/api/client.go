// Package api is the client side of the REST surface. Every failure is
// returned wrapped around one of the common sentinel errors so the sync
// engine can classify it without looking at HTTP details.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/models"
	"github.com/dmitrijs2005/ontop/internal/common"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the part of every response body the client inspects before
// decoding the payload.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", common.ErrUnavailable, err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		return mapError(resp.StatusCode, env.Error)
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("%w: %s", common.ErrServer, env.Error)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %w", common.ErrServer, err)
		}
	}
	return nil
}

// mapError turns a non-2xx status into the common taxonomy.
func mapError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}

	var base error
	switch {
	case status == http.StatusBadRequest:
		base = common.ErrValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		base = common.ErrUnauthorized
	case status == http.StatusNotFound:
		base = common.ErrNotFound
	case status == http.StatusConflict:
		base = common.ErrConflict
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		base = common.ErrUnavailable
	case status >= 500:
		base = common.ErrServer
	default:
		base = common.ErrValidation
	}
	return fmt.Errorf("%w: %d %s", base, status, msg)
}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", common.ErrValidation, err)
	}
	return b, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	body, err := encode(credentials{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, err
	}
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", "", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login exchanges credentials for a session token. A rejected login comes
// back as common.ErrUnauthorized; the session layer decides what it means.
func (c *Client) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	body, err := encode(credentials{Email: email, Password: password})
	if err != nil {
		return "", nil, err
	}
	var out struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User == nil {
		return "", nil, fmt.Errorf("%w: login response without token", common.ErrServer)
	}
	return out.Token, out.User, nil
}

// Send replays one mutation. Payload is sent verbatim.
func (c *Client) Send(ctx context.Context, token, method, endpoint string, payload json.RawMessage) error {
	var body []byte
	if len(payload) > 0 {
		body = payload
	}
	return c.do(ctx, method, endpoint, token, body, nil)
}

func (c *Client) GetTasks(ctx context.Context, token string) ([]models.Task, error) {
	var out struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		out.Tasks = []models.Task{}
	}
	return out.Tasks, nil
}

// GetFitness returns the raw fitness profile, or nil when none is stored.
func (c *Client) GetFitness(ctx context.Context, token string) (json.RawMessage, error) {
	var out struct {
		Fitness json.RawMessage `json:"fitness"`
	}
	if err := c.do(ctx, http.MethodGet, "/fitness", token, nil, &out); err != nil {
		return nil, err
	}
	return nullToNil(out.Fitness), nil
}

// GetFinances returns the raw finance profile, or nil when none is stored.
func (c *Client) GetFinances(ctx context.Context, token string) (json.RawMessage, error) {
	var out struct {
		Finances json.RawMessage `json:"finances"`
	}
	if err := c.do(ctx, http.MethodGet, "/finances", token, nil, &out); err != nil {
		return nil, err
	}
	return nullToNil(out.Finances), nil
}

func (c *Client) Export(ctx context.Context, token string) (json.RawMessage, error) {
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/export", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) PremiumStatus(ctx context.Context, token string) (*models.PremiumStatus, error) {
	var out struct {
		Premium *models.PremiumStatus `json:"premium"`
	}
	if err := c.do(ctx, http.MethodGet, "/premium-status", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Premium == nil {
		out.Premium = &models.PremiumStatus{}
	}
	return out.Premium, nil
}

func (c *Client) Backup(ctx context.Context, token string) (*models.BackupResult, error) {
	var out struct {
		Backup *models.BackupResult `json:"backup"`
	}
	if err := c.do(ctx, http.MethodPost, "/backup", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Backup == nil {
		return nil, fmt.Errorf("%w: empty backup response", common.ErrServer)
	}
	return out.Backup, nil
}

func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/account", token, nil, nil)
}

// Ping probes GET /health. Any failure, including a degraded backend,
// reports the server as unavailable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", "", nil, nil)
	if err != nil && !errors.Is(err, common.ErrUnavailable) {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	return err
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
