// Package api talks to the fieldlog backend over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

var ErrUnauthorized = errors.New("unauthorized")

// Rejection describes a 401 or 403 answer to an authenticated call.
type Rejection struct {
	Status int
	Method string
	Path   string
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Status int
	Errors []string
}

func (e *StatusError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("backend answered %d", e.Status)
	}
	return fmt.Sprintf("backend answered %d: %s", e.Status, e.Errors[0])
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

type Client struct {
	base *url.URL
	http *http.Client

	mu           sync.RWMutex
	unauthorized func(Rejection)
}

func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}

	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: u, http: hc}, nil
}

// OnUnauthorized installs the callback invoked once for every 401 or 403
// answer to a call made with an access token.
func (c *Client) OnUnauthorized(fn func(Rejection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = fn
}

func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	res := &dto.LoginResponse{}
	err := c.do(ctx, http.MethodPost, "/auth/login", "", &dto.EmailAndPasswordRequest{Email: email, Password: password}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Refresh(ctx context.Context, refresh string) (*dto.TokenPair, error) {
	res := &dto.TokenPair{}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", &dto.RefreshRequest{Refresh: refresh}, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", req, nil)
}

func (c *Client) RegisterToken(ctx context.Context, access string, req *dto.RegisterTokenRequest) error {
	return c.do(ctx, http.MethodPost, "/notifications/register-token", access, req, nil)
}

func (c *Client) UnregisterToken(ctx context.Context, access, token string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/unregister-token", access, &dto.UnregisterTokenRequest{Token: token}, nil)
}

func (c *Client) UserTokens(ctx context.Context, access string, uid uuid.UUID) ([]string, error) {
	res := &dto.UserTokensResponse{}
	if err := c.do(ctx, http.MethodGet, "/notifications/user-tokens/"+uid.String(), access, nil, res); err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

func (c *Client) SendTest(ctx context.Context, access string, req *dto.TestNotificationRequest) (*dto.DeliveryResult, error) {
	res := &dto.DeliveryResult{}
	if err := c.do(ctx, http.MethodPost, "/notifications/test", access, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path, access string, body, dst any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", config.BearerPrefix+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		payload := struct {
			Errors []string `json:"errors"`
		}{}
		if err = json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			se.Errors = payload.Errors
		}

		if access != "" && errors.Is(se, ErrUnauthorized) {
			c.reject(Rejection{Status: resp.StatusCode, Method: method, Path: path})
		}
		return se
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(envelope.Data, dst)
}

func (c *Client) reject(r Rejection) {
	c.mu.RLock()
	fn := c.unauthorized
	c.mu.RUnlock()

	zap.L().Debug("request rejected", zap.Int("status", r.Status), zap.String("path", r.Path))
	if fn != nil {
		fn(r)
	}
}
