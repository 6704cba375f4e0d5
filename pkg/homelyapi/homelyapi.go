/*
Package homelyapi implements a simple library for the Homely cloud API (https://sdk.iotiliti.cloud/).
*/
package homelyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Config represents a configuration for the Homely API
type Config struct {
	// BaseURL overrides the production API base URL, mainly for tests
	BaseURL string `toml:"base_url,omitempty"`
}

var baseURL = defaultBaseURL

// Init initializes the Homely API configuration
func Init(config Config) {
	if config.BaseURL != "" {
		baseURL = config.BaseURL
	}
}

// httpClient is the bare client used for token requests; authorized API
// requests go through the oauth2 client instead
var httpClient = &http.Client{Timeout: requestTimeout}

// tokenSource obtains Homely access tokens with the account credentials
// (password grant) and keeps the refresh token for cheaper renewals.
// It satisfies oauth2.TokenSource and is meant to be wrapped in an
// oauth2.ReuseTokenSource so valid access tokens get reused.
type tokenSource struct {
	username string
	password string

	refreshToken  string
	refreshExpiry time.Time
}

// Token returns a fresh access token, renewing through the refresh
// endpoint when possible and falling back to a full login
func (s *tokenSource) Token() (*oauth2.Token, error) {
	if s.refreshToken != "" && time.Now().Before(s.refreshExpiry) {
		if token, err := s.refresh(); err == nil {
			return token, nil
		}
		// a failed refresh is not fatal, retry with a full login
	}
	return s.login()
}

func (s *tokenSource) login() (*oauth2.Token, error) {
	payload := map[string]string{"username": s.username, "password": s.password}
	resp, err := postJSON(baseURL+tokenPath, payload)
	if err != nil {
		return nil, fmt.Errorf("homelyapi: token request failed: %w", ErrResponse)
	}

	switch {
	case resp.statusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("homelyapi: token request got status %d: %w", resp.statusCode, ErrResponse)
	case resp.statusCode >= http.StatusBadRequest:
		return nil, ErrInvalidAuth
	}
	return s.storeToken(resp.body)
}

func (s *tokenSource) refresh() (*oauth2.Token, error) {
	payload := map[string]string{"refresh_token": s.refreshToken}
	resp, err := postJSON(baseURL+tokenRefreshPath, payload)
	if err != nil {
		return nil, fmt.Errorf("homelyapi: token refresh failed: %w", ErrResponse)
	}

	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusCreated {
		s.refreshToken = ""
		return nil, fmt.Errorf("homelyapi: token refresh got status %d: %w", resp.statusCode, ErrResponse)
	}
	return s.storeToken(resp.body)
}

func (s *tokenSource) storeToken(body []byte) (*oauth2.Token, error) {
	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("homelyapi: error parsing TokenResponse: %w", ErrResponse)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("homelyapi: empty access token: %w", ErrResponse)
	}

	now := time.Now()
	s.refreshToken = tr.RefreshToken
	s.refreshExpiry = now.Add(time.Duration(tr.RefreshExpiresIn)*time.Second - tokenExpireMargin)

	return &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: tr.RefreshToken,
		Expiry:       now.Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpireMargin),
	}, nil
}

type response struct {
	statusCode int
	body       []byte
}

func postJSON(URL string, payload interface{}) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Post(URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &response{statusCode: resp.StatusCode, body: respBody}, nil
}
