// Package api is the HTTP client for the Reviewd backend. It translates
// transport-level outcomes into the error taxonomy the session and
// entitlement layers act on: an explicit 401/403 is ErrUnauthorized, a
// rejected exchange token is ErrTokenInvalid/ErrTokenExpired, and anything
// without a response surfaces as a plain wrapped error (unknown, not
// denied).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUnauthorized is an authoritative negative from the backend (401/403)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenInvalid means the exchange token was malformed, unknown, or
	// already consumed. Terminal for that token.
	ErrTokenInvalid = errors.New("exchange token invalid")

	// ErrTokenExpired means the exchange token is past its TTL
	ErrTokenExpired = errors.New("exchange token expired")
)

// Identity is the minimal user record the backend confirms on login,
// exchange, and session verification
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

// AuthResult is the outcome of a successful login or token exchange
type AuthResult struct {
	Token    string   `json:"token"`
	Identity Identity `json:"user"`
}

// PlanFeature wraps a feature name in the company profile payload
type PlanFeature struct {
	Name string `json:"name"`
}

// Plan is the subscription tier in the company profile payload
type Plan struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Features []PlanFeature `json:"features"`
}

// CompanyProfile is the entitlement source payload
type CompanyProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Plan Plan   `json:"plan"`
}

// Client represents an HTTP client for the Reviewd API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for the given base URL (e.g. https://api.reviewd.dev)
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

type errorBody struct {
	Error string `json:"error"`
}

// decodeError maps a non-2xx response to the client error taxonomy
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", ErrUnauthorized, resp.StatusCode, eb.Error)
	case http.StatusBadRequest:
		switch eb.Error {
		case "invalid_token":
			return ErrTokenInvalid
		case "expired_token":
			return ErrTokenExpired
		}
	}

	return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
}

func (c *Client) do(ctx context.Context, method, path, token string, reqBody, respBody any) error {
	var payload io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	reqBody := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExchangeToken redeems a one-time magic-link state token
func (c *Client) ExchangeToken(ctx context.Context, state string) (*AuthResult, error) {
	reqBody := struct {
		State string `json:"state"`
	}{State: state}

	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/exchange-token", "", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestMagicLink asks the backend to email a one-time login link
func (c *Client) RequestMagicLink(ctx context.Context, email string) error {
	reqBody := struct {
		Email string `json:"email"`
	}{Email: email}

	return c.do(ctx, http.MethodPost, "/api/auth/magic-link", "", reqBody, nil)
}

// Me verifies the session and returns the confirmed identity
func (c *Client) Me(ctx context.Context, token string) (*Identity, error) {
	var identity Identity
	if err := c.do(ctx, http.MethodGet, "/api/user/me", token, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Logout asks the backend to invalidate the session
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// CompanyProfile fetches the session company's plan and feature set
func (c *Client) CompanyProfile(ctx context.Context, token string) (*CompanyProfile, error) {
	var profile CompanyProfile
	if err := c.do(ctx, http.MethodGet, "/api/company/profile", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
