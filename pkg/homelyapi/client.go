package homelyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// Client represents a Homely API client bound to one account
// the underlying oauth2 client reuses access tokens and renews them
// through the refresh endpoint when they expire
type Client struct {
	*http.Client
	source oauth2.TokenSource
}

// NewClient initializes a Homely API client with the given account credentials
// no network request is made until Authenticate or an API call
func NewClient(username, password string) *Client {
	source := oauth2.ReuseTokenSource(nil, &tokenSource{username: username, password: password})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = requestTimeout
	return &Client{client, source}
}

// Authenticate validates the account credentials by obtaining a first
// access token
// it returns ErrInvalidAuth when the credentials are rejected and
// ErrResponse on any other failure
func (c *Client) Authenticate() error {
	_, err := c.source.Token()
	return err
}

// GetLocations gets all locations the account has access to
// the account must be owner or administrator of a location to see it
func (c *Client) GetLocations() ([]Location, error) {
	body, err := c.request(http.MethodGet, baseURL+locationsPath)
	if err != nil {
		return nil, err
	}

	var locations []Location
	if err = json.Unmarshal(body, &locations); err != nil {
		return nil, fmt.Errorf("homelyapi: error parsing Locations: %w", ErrResponse)
	}
	return locations, nil
}

// GetHome gets the full state of the location with the given ID
func (c *Client) GetHome(locationID string) (home Home, err error) {
	body, err := c.request(http.MethodGet, baseURL+homePath+locationID)
	if err != nil {
		return
	}

	if err = json.Unmarshal(body, &home); err != nil {
		err = fmt.Errorf("homelyapi: error parsing Home: %w", ErrResponse)
	}
	return
}

// GetAlarmState gets the raw alarm system state of the location with
// the given ID
func (c *Client) GetAlarmState(locationID string) (string, error) {
	home, err := c.GetHome(locationID)
	if err != nil {
		return "", err
	}
	return home.AlarmState, nil
}

// request makes an authorized request to the Homely API with the given
// method and URL
func (c *Client) request(method, URL string) (body []byte, err error) {
	req, err := http.NewRequest(method, URL, nil)
	if err != nil {
		return
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		// token retrieval failures surface here wrapped in *url.Error,
		// keep the sentinel visible to callers
		return nil, fmt.Errorf("homelyapi: request failed: %w", unwrapSentinel(err))
	}

	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homelyapi: error reading response: %w", ErrResponse)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return body, nil
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrLocationNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("homelyapi: got status %d: %w", resp.StatusCode, ErrResponse)
	}
}

// unwrapSentinel maps a transport-level error onto one of the package
// sentinels, preserving ErrInvalidAuth raised by the token source
func unwrapSentinel(err error) error {
	if errors.Is(err, ErrInvalidAuth) {
		return ErrInvalidAuth
	}
	return ErrResponse
}
