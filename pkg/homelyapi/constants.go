package homelyapi

import (
	"fmt"
	"time"
)

// URLs
const (
	defaultBaseURL = "https://sdk.iotiliti.cloud/homely"

	tokenPath        = "/oauth/token"
	tokenRefreshPath = "/oauth/refresh-token"
	locationsPath    = "/locations"
	homePath         = "/home/"
)

const (
	// requestTimeout is the timeout of a single API request
	requestTimeout = 10 * time.Second
	// tokenExpireMargin is subtracted from token lifetimes so a token is
	// never used right at its expiration edge
	tokenExpireMargin = 20 * time.Second
)

// errors
var (
	ErrInvalidAuth      = fmt.Errorf("invalid credentials")
	ErrResponse         = fmt.Errorf("unexpected response")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrLocationNotFound = fmt.Errorf("location not found")
)
