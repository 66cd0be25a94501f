package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseClient talks to a Supabase GoTrue auth service over REST.
type SupabaseClient struct {
	baseURL     string
	apiKey      string
	redirectURL string
	httpClient  *http.Client
}

// NewSupabaseClient creates a client for the given project URL and API key.
// A nil httpClient falls back to a client with a 10 second timeout.
func NewSupabaseClient(baseURL, apiKey string, httpClient *http.Client) *SupabaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// WithRedirectURL sets the site URL that recovery emails link back to.
func (c *SupabaseClient) WithRedirectURL(siteURL string) *SupabaseClient {
	c.redirectURL = strings.TrimRight(siteURL, "/")
	return c
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        supabaseUser `json:"user"`
}

type supabaseUser struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignIn exchanges an email/password pair for a provider session.
func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/auth/v1/token?grant_type=password", body, "")
	if err != nil {
		return nil, fmt.Errorf("supabase sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase sign in: %s", readError(resp))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("supabase sign in: decode response: %w", err)
	}
	return &Session{
		AccessToken: tr.AccessToken,
		Email:       tr.User.Email,
		FullName:    tr.User.UserMetadata.FullName,
	}, nil
}

// SignUp registers a new account with the provider. The full name is stored
// as user metadata alongside the credentials.
func (c *SupabaseClient) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	resp, err := c.post(ctx, "/auth/v1/signup", body, "")
	if err != nil {
		return nil, fmt.Errorf("supabase sign up: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict {
		return nil, ErrEmailTaken
	}
	if resp.StatusCode == http.StatusBadRequest {
		msg := readError(resp)
		if strings.Contains(strings.ToLower(msg), "already registered") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("supabase sign up: %s", msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase sign up: %s", readError(resp))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("supabase sign up: decode response: %w", err)
	}
	session := &Session{
		AccessToken: tr.AccessToken,
		Email:       tr.User.Email,
		FullName:    fullName,
	}
	// Signup without auto-confirm returns the user object at the top level
	// and no token. Keep the email so the caller can still provision a
	// local profile.
	if session.Email == "" {
		session.Email = email
	}
	return session, nil
}

// SignOut revokes the provider session behind the given access token.
func (c *SupabaseClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, "/auth/v1/logout", nil, accessToken)
	if err != nil {
		return fmt.Errorf("supabase sign out: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supabase sign out: %s", readError(resp))
	}
	return nil
}

// SendPasswordReset asks the provider to email a recovery link.
func (c *SupabaseClient) SendPasswordReset(ctx context.Context, email string) error {
	path := "/auth/v1/recover"
	if c.redirectURL != "" {
		path += "?redirect_to=" + url.QueryEscape(c.redirectURL+"/auth/login")
	}
	resp, err := c.post(ctx, path, map[string]string{"email": email}, "")
	if err != nil {
		return fmt.Errorf("supabase password reset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supabase password reset: %s", readError(resp))
	}
	return nil
}

// Health checks the auth service's health endpoint.
func (c *SupabaseClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return fmt.Errorf("supabase health: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supabase health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *SupabaseClient) post(ctx context.Context, path string, body any, bearer string) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.httpClient.Do(req)
}

// readError extracts the most useful message from a GoTrue error body.
func readError(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		switch {
		case er.ErrorDescription != "":
			return er.ErrorDescription
		case er.Message != "":
			return er.Message
		case er.Error != "":
			return er.Error
		}
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
