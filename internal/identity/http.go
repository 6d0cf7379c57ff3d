package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-admin/internal/config"
	"clinic-admin/internal/domain"
)

// Client talks to the identity service over its HTTP admin API using the
// privileged service-role key. It also supports remote credential exchange
// via the service's /user endpoint.
type Client struct {
	baseURL    string
	serviceKey string
	anonKey    string
	http       *http.Client
}

var _ Store = (*Client)(nil)
var _ TokenExchanger = (*Client)(nil)

// NewClient creates an identity-service client from the auth configuration.
func NewClient(cfg *config.AuthConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.IdentityURL, "/"),
		serviceKey: cfg.ServiceRoleKey,
		anonKey:    cfg.AnonKey,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// userPayload is the wire shape of a user record.
type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (p *userPayload) toUser() *User {
	return &User{
		ID:           p.ID,
		Email:        p.Email,
		AppMetadata:  p.AppMetadata,
		UserMetadata: p.UserMetadata,
	}
}

// errorPayload is the wire shape of an identity-service error response.
type errorPayload struct {
	Message  string `json:"msg"`
	Error    string `json:"error"`
	ErrorMsg string `json:"message"`
}

func (p *errorPayload) text() string {
	for _, s := range []string{p.Message, p.ErrorMsg, p.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// duplicateMarkers are the known phrasings of a registration-duplicate
// failure across identity-service versions.
var duplicateMarkers = []string{
	"already registered",
	"already exists",
	"user with email",
	"duplicate",
}

func isDuplicateMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range duplicateMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) CreateUser(ctx context.Context, email, password string) (*User, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	var out userPayload
	err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, body, &out)
	if err != nil {
		var upstream *upstreamStatusError
		if errors.As(err, &upstream) {
			if isDuplicateMessage(upstream.message) {
				return nil, ErrEmailExists
			}
			return nil, domain.ErrUpstream("create user: %s", upstream.message)
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, domain.ErrUpstream("identity service returned no user id on create")
	}
	return out.toUser(), nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	path := "/admin/users?email=" + url.QueryEscape(strings.ToLower(email))
	var out struct {
		Users []userPayload `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, c.serviceKey, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Users {
		if strings.EqualFold(out.Users[i].Email, email) {
			return out.Users[i].toUser(), nil
		}
	}
	return nil, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, nil)
}

func (c *Client) UpdateUserMetadata(ctx context.Context, id string, appMeta, userMeta map[string]any) error {
	// Merge client-side: fetch current bags, overlay the new keys.
	var current userPayload
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, &current); err != nil {
		return err
	}
	body := map[string]any{
		"app_metadata":  mergeBags(current.AppMetadata, appMeta),
		"user_metadata": mergeBags(current.UserMetadata, userMeta),
	}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), c.serviceKey, body, nil)
}

func (c *Client) UserFromToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	key := c.anonKey
	if key == "" {
		key = c.serviceKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream("identity exchange: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	var out userPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.ErrUpstream("identity exchange: decode response: %v", err)
	}
	if out.ID == "" {
		return nil, ErrInvalidToken
	}
	return out.toUser(), nil
}

// do performs one authenticated admin-API round trip. Non-2xx responses are
// returned as upstreamStatusError so callers can inspect the message.
func (c *Client) do(ctx context.Context, method, path, key string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("apikey", key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ErrUpstream("identity service %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.ErrUpstream("identity service %s %s: decode response: %v", method, path, err)
	}
	return nil
}

// upstreamStatusError carries the status and message of a failed identity
// call for duplicate-marker inspection.
type upstreamStatusError struct {
	status  int
	message string
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("identity service returned %d: %s", e.status, e.message)
}

func upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload errorPayload
	msg := ""
	if json.Unmarshal(raw, &payload) == nil {
		msg = payload.text()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &upstreamStatusError{status: resp.StatusCode, message: msg}
}

func mergeBags(current, update map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(update))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
