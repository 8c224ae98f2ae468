// Package relayclient implements relay.Relay over the HTTP action protocol
// served by the api package.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/types"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 8 << 20
)

var (
	// ErrStatus is returned for a non-2xx response.
	ErrStatus = errors.New("unexpected relay status")
	// ErrRejected is returned when the relay answered success=false.
	ErrRejected = errors.New("relay rejected request")
)

// Client talks to a relay endpoint such as http://host:9080/api.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetState returns the published snapshot, or nil when the relay holds none.
func (c *Client) GetState(ctx context.Context) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, "getState", nil)
	if err != nil {
		return nil, err
	}
	if isEmptyObject(body) {
		return nil, nil
	}
	return body, nil
}

func (c *Client) DrainIntents(ctx context.Context) ([]model.Intent, error) {
	body, err := c.do(ctx, http.MethodGet, "getIntents", nil)
	if err != nil {
		return nil, err
	}
	var out []model.Intent
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode intents: %w", err)
	}
	if out == nil {
		out = []model.Intent{}
	}
	return out, nil
}

func (c *Client) PushState(ctx context.Context, state []byte) error {
	body, err := c.do(ctx, http.MethodPost, "pushState", state)
	if err != nil {
		return err
	}
	_, err = decodeAck(body)
	return err
}

func (c *Client) PushIntent(ctx context.Context, in model.Intent) (model.Intent, error) {
	payload, err := json.Marshal(struct {
		Type    model.IntentType `json:"type"`
		Payload json.RawMessage  `json:"payload"`
	}{in.Type, in.Payload})
	if err != nil {
		return model.Intent{}, fmt.Errorf("encode intent: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "pushIntent", payload)
	if err != nil {
		return model.Intent{}, err
	}
	ack, err := decodeAck(body)
	if err != nil {
		return model.Intent{}, err
	}
	in.ID = ack.ID
	return in, nil
}

// PublicSettings fetches the participant-visible settings.
func (c *Client) PublicSettings(ctx context.Context) (types.PublicSettings, error) {
	var out types.PublicSettings
	body, err := c.do(ctx, http.MethodGet, "getPublicSettings", nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// Login exchanges the host password for a token.
func (c *Client) Login(ctx context.Context, password string) (types.LoginResult, error) {
	var out types.LoginResult
	payload, err := json.Marshal(types.LoginRequest{Password: password})
	if err != nil {
		return out, fmt.Errorf("encode login: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "login", payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode login: %w", err)
	}
	if !out.Success {
		return out, ErrRejected
	}
	return out, nil
}

// UpdateSettings changes the join URL and optionally the password.
func (c *Client) UpdateSettings(ctx context.Context, req types.UpdateSettingsRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "updateSettings", payload)
	if err != nil {
		return err
	}
	_, err = decodeAck(body)
	return err
}

func (c *Client) do(ctx context.Context, method, action string, payload []byte) ([]byte, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, action, resp.StatusCode)
	}
	return body, nil
}

func decodeAck(body []byte) (types.Ack, error) {
	var ack types.Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return ack, fmt.Errorf("decode ack: %w", err)
	}
	if !ack.Success {
		return ack, fmt.Errorf("%w: %s", ErrRejected, ack.Error)
	}
	return ack, nil
}

func isEmptyObject(body []byte) bool {
	b := bytes.TrimSpace(body)
	if len(b) == 0 {
		return true
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(b, &obj) == nil && len(obj) == 0
}
