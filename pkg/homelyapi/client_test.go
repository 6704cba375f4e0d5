package homelyapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAPI fakes the Homely cloud API
type testAPI struct {
	password string

	tokenExpiresIn int64
	loginCalls     int32
	refreshCalls   int32
	homeCalls      int32

	locations []Location
	home      Home

	locationsStatus int
	homeStatus      int
}

func newTestAPI() *testAPI {
	return &testAPI{
		password:       "secret",
		tokenExpiresIn: 1800,
		locations: []Location{
			{Name: "Home", Role: "OWNER", LocationID: "loc-1", GatewaySerial: "gw-1"},
		},
		home: Home{
			LocationID: "loc-1",
			Name:       "Home",
			AlarmState: "ARMED_NIGHT",
		},
	}
}

func (a *testAPI) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&a.loginCalls, 1)
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["password"] != a.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		a.writeToken(w)
	})
	mux.HandleFunc(tokenRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&a.refreshCalls, 1)
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["refresh_token"] != "refresh-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a.writeToken(w)
	})
	mux.HandleFunc(locationsPath, func(w http.ResponseWriter, r *http.Request) {
		if !a.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if a.locationsStatus != 0 {
			w.WriteHeader(a.locationsStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(a.locations)
	})
	mux.HandleFunc(homePath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&a.homeCalls, 1)
		if !a.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if a.homeStatus != 0 {
			w.WriteHeader(a.homeStatus)
			return
		}
		if !strings.HasSuffix(r.URL.Path, a.home.LocationID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(a.home)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	Init(Config{BaseURL: server.URL})
	return server
}

func (a *testAPI) writeToken(w http.ResponseWriter) {
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:      "access-token",
		ExpiresIn:        a.tokenExpiresIn,
		RefreshToken:     "refresh-token",
		RefreshExpiresIn: 3600,
	})
}

func (a *testAPI) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer access-token"
}

func TestAuthenticate(t *testing.T) {
	api := newTestAPI()
	api.serve(t)

	client := NewClient("user", "secret")
	require.NoError(t, client.Authenticate())
	assert.EqualValues(t, 1, api.loginCalls)

	// a second call reuses the cached token
	require.NoError(t, client.Authenticate())
	assert.EqualValues(t, 1, api.loginCalls)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	api := newTestAPI()
	api.serve(t)

	client := NewClient("user", "wrong")
	assert.ErrorIs(t, client.Authenticate(), ErrInvalidAuth)
}

func TestAuthenticateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	Init(Config{BaseURL: server.URL})

	client := NewClient("user", "secret")
	err := client.Authenticate()
	assert.ErrorIs(t, err, ErrResponse)
	assert.NotErrorIs(t, err, ErrInvalidAuth)
}

func TestGetLocations(t *testing.T) {
	api := newTestAPI()
	api.serve(t)

	client := NewClient("user", "secret")
	locations, err := client.GetLocations()
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "loc-1", locations[0].LocationID)
	assert.Equal(t, "OWNER", locations[0].Role)
}

func TestGetLocationsServerError(t *testing.T) {
	api := newTestAPI()
	api.locationsStatus = http.StatusBadGateway
	api.serve(t)

	client := NewClient("user", "secret")
	_, err := client.GetLocations()
	assert.ErrorIs(t, err, ErrResponse)
}

func TestGetHome(t *testing.T) {
	api := newTestAPI()
	api.home.Devices = []Device{{ID: "dev-1", Online: true}}
	api.serve(t)

	client := NewClient("user", "secret")
	home, err := client.GetHome("loc-1")
	require.NoError(t, err)
	assert.Equal(t, "ARMED_NIGHT", home.AlarmState)
	require.Len(t, home.Devices, 1)
	assert.True(t, home.Devices[0].Online)

	raw, err := client.GetAlarmState("loc-1")
	require.NoError(t, err)
	assert.Equal(t, "ARMED_NIGHT", raw)
}

func TestGetHomeUnknownLocation(t *testing.T) {
	api := newTestAPI()
	api.serve(t)

	client := NewClient("user", "secret")
	_, err := client.GetHome("loc-2")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestGetHomeUnauthorized(t *testing.T) {
	api := newTestAPI()
	api.homeStatus = http.StatusForbidden
	api.serve(t)

	client := NewClient("user", "secret")
	_, err := client.GetHome("loc-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenRefresh(t *testing.T) {
	api := newTestAPI()
	// expires_in minus the expire margin makes the first access token
	// invalid immediately, forcing a renewal on the next request
	api.tokenExpiresIn = 20
	api.serve(t)

	client := NewClient("user", "secret")
	require.NoError(t, client.Authenticate())
	require.EqualValues(t, 1, api.loginCalls)

	_, err := client.GetLocations()
	require.NoError(t, err)
	assert.EqualValues(t, 1, api.loginCalls, "renewal must go through the refresh endpoint")
	assert.EqualValues(t, 1, api.refreshCalls)
}
