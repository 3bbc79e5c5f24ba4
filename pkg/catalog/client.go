// Package catalog is the HTTP client for the remote tea catalog authority.
// The authority is the system of record for teas, ratings and role
// membership; this client reports its verdicts faithfully and never
// second-guesses a Forbidden response.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Tea is one catalog record. AverageRating is nil until somebody rates it.
type Tea struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Origin        string   `json:"origin"`
	CreatedBy     string   `json:"createdBy"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}

// TeaInput is the mutable portion of a tea record.
type TeaInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Origin      string `json:"origin"`
}

// RatingStatus is the caller's prior rating on one tea. Rating is 0 when
// the caller has not rated it.
type RatingStatus struct {
	Rating int `json:"rating"`
}

// HasRated reports whether a prior rating exists.
func (r RatingStatus) HasRated() bool {
	return r.Rating > 0
}

// Client provides HTTP access to the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Pass a client whose
// transport injects the session credential; the catalog client itself
// never attaches credentials.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a client for the catalog API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type elevationResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

type rateRequest struct {
	Score int `json:"score"`
}

// Login exchanges an identifier and secret for a credential.
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login",
		loginRequest{Username: identifier, Password: secret}, &out, http.StatusOK)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return out.Token, nil
}

// Register creates a new account. The caller logs in separately afterwards.
func (c *Client) Register(ctx context.Context, identifier, secret string) error {
	return c.do(ctx, http.MethodPost, "/api/register",
		loginRequest{Username: identifier, Password: secret}, nil, http.StatusOK, http.StatusCreated)
}

// ElevationStatus reports whether the attached credential's holder is an
// administrator. Requires a credential on the underlying transport.
func (c *Client) ElevationStatus(ctx context.Context) (bool, error) {
	var out elevationResponse
	if err := c.do(ctx, http.MethodGet, "/api/isadmin", nil, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

// ListTeas retrieves all teas.
func (c *Client) ListTeas(ctx context.Context) ([]Tea, error) {
	var teas []Tea
	if err := c.do(ctx, http.MethodGet, "/api/teas", nil, &teas, http.StatusOK); err != nil {
		return nil, err
	}
	return teas, nil
}

// GetTea retrieves one tea by id.
func (c *Client) GetTea(ctx context.Context, id string) (*Tea, error) {
	var tea Tea
	if err := c.do(ctx, http.MethodGet, "/api/teas/"+id, nil, &tea, http.StatusOK); err != nil {
		return nil, err
	}
	return &tea, nil
}

// CreateTea creates a new tea record.
func (c *Client) CreateTea(ctx context.Context, input TeaInput) (*Tea, error) {
	var tea Tea
	if err := c.do(ctx, http.MethodPost, "/api/teas", input, &tea, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &tea, nil
}

// UpdateTea replaces the mutable fields of an existing tea.
func (c *Client) UpdateTea(ctx context.Context, id string, input TeaInput) (*Tea, error) {
	var tea Tea
	if err := c.do(ctx, http.MethodPut, "/api/teas/"+id, input, &tea, http.StatusOK); err != nil {
		return nil, err
	}
	return &tea, nil
}

// DeleteTea removes a tea. The authority enforces ownership or elevation
// and answers 403 when the client's gating was stale.
func (c *Client) DeleteTea(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/teas/"+id, nil, nil, http.StatusOK, http.StatusNoContent)
}

// RatingStatus retrieves the caller's prior rating on a tea.
func (c *Client) RatingStatus(ctx context.Context, id string) (RatingStatus, error) {
	var status RatingStatus
	if err := c.do(ctx, http.MethodGet, "/api/teas/"+id+"/israted", nil, &status, http.StatusOK); err != nil {
		return RatingStatus{}, err
	}
	return status, nil
}

// SubmitRating submits a 1-5 score. The authority enforces the
// one-rating-per-user invariant regardless of what the client believed.
func (c *Client) SubmitRating(ctx context.Context, id string, score int) error {
	return c.do(ctx, http.MethodPost, "/api/teas/"+id+"/rate",
		rateRequest{Score: score}, nil, http.StatusOK, http.StatusCreated)
}

// do performs one request/response cycle: encode the body, send, check the
// status against the accepted set, and decode into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any, accepted ...int) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	ok := false
	for _, code := range accepted {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeError turns a non-2xx response into an APIError, preserving the
// authority's message when one is present. Bodies carry either {message}
// (login/register) or {error}.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil {
		if wire.Message != "" {
			apiErr.Message = wire.Message
		} else {
			apiErr.Message = wire.Error
		}
	}
	return apiErr
}
