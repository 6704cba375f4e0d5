package flow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HomelyBridge/pkg/homelyapi"
)

type fakeSession struct {
	locations []homelyapi.Location
	err       error
}

func (s fakeSession) GetLocations() ([]homelyapi.Location, error) {
	return s.locations, s.err
}

type fakeAuth struct {
	err     error
	session fakeSession
	calls   int
}

func (a *fakeAuth) Login(username, password string) (Session, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

type memRecords struct {
	mu      sync.Mutex
	entries map[string]Record
}

func newMemRecords() *memRecords {
	return &memRecords{entries: map[string]Record{}}
}

func (m *memRecords) Exists(_ context.Context, locationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[locationID]
	return ok, nil
}

func (m *memRecords) Insert(_ context.Context, record Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[record.LocationID]; ok {
		return false, nil
	}
	m.entries[record.LocationID] = record
	return true, nil
}

var twoLocations = []homelyapi.Location{
	{Name: "Cabin", LocationID: "loc-1", GatewaySerial: "gw-1"},
	{Name: "Home", LocationID: "loc-2", GatewaySerial: "gw-2"},
}

func TestSubmitCredentialsInvalidAuth(t *testing.T) {
	auth := &fakeAuth{err: homelyapi.ErrInvalidAuth}
	f := New(auth, newMemRecords())

	err := f.SubmitCredentials(context.Background(), "user", "wrong")
	assert.ErrorIs(t, err, ErrInvalidAuth)
	assert.Equal(t, StepUser, f.Step, "flow must stay in the credentials step")

	// a retry with accepted credentials advances
	auth.err = nil
	auth.session = fakeSession{locations: twoLocations}
	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "right"))
	assert.Equal(t, StepInstallation, f.Step)
	assert.Len(t, f.Locations, 2)
}

func TestSubmitCredentialsResponseError(t *testing.T) {
	auth := &fakeAuth{err: errors.New("gateway timeout")}
	f := New(auth, newMemRecords())

	err := f.SubmitCredentials(context.Background(), "user", "pass")
	assert.ErrorIs(t, err, ErrResponse)
	assert.Equal(t, StepUser, f.Step)
}

func TestSubmitCredentialsMissingFields(t *testing.T) {
	auth := &fakeAuth{}
	f := New(auth, newMemRecords())

	assert.ErrorIs(t, f.SubmitCredentials(context.Background(), "", "pass"), ErrMissingField)
	assert.ErrorIs(t, f.SubmitCredentials(context.Background(), "user", ""), ErrMissingField)
	assert.Equal(t, StepUser, f.Step)
	assert.Zero(t, auth.calls, "empty input must be rejected before any upstream call")
}

func TestLocationsNoneAborts(t *testing.T) {
	auth := &fakeAuth{session: fakeSession{}}
	f := New(auth, newMemRecords())

	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))
	assert.Equal(t, StepAborted, f.Step)
	assert.Equal(t, AbortLocationsNone, f.AbortReason)
}

func TestLocationsErrorAborts(t *testing.T) {
	auth := &fakeAuth{session: fakeSession{err: errors.New("boom")}}
	f := New(auth, newMemRecords())

	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))
	assert.Equal(t, StepAborted, f.Step)
	assert.Equal(t, AbortLocationsError, f.AbortReason)
}

func TestSingleLocationAutoSelect(t *testing.T) {
	auth := &fakeAuth{session: fakeSession{locations: twoLocations[:1]}}
	records := newMemRecords()
	f := New(auth, records)

	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))
	assert.True(t, f.Completed())
	require.NotNil(t, f.Record)
	assert.Equal(t, "loc-1", f.Record.LocationID)
	assert.Equal(t, "Cabin", f.Record.LocationName)
	assert.Len(t, records.entries, 1)
}

func TestSelectLocationUnknownChoice(t *testing.T) {
	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}
	records := newMemRecords()
	f := New(auth, records)
	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))

	// retrying with an invalid ID never mutates state
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, f.SelectLocation(context.Background(), "nope"), ErrUnknownChoice)
		assert.Equal(t, StepInstallation, f.Step)
	}
	assert.Empty(t, records.entries)

	require.NoError(t, f.SelectLocation(context.Background(), "loc-2"))
	assert.True(t, f.Completed())
}

func TestSelectLocationAlreadyConfigured(t *testing.T) {
	records := newMemRecords()
	records.entries["loc-2"] = Record{LocationID: "loc-2"}

	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}
	f := New(auth, records)
	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))

	require.NoError(t, f.SelectLocation(context.Background(), "loc-2"))
	assert.True(t, f.Aborted())
	assert.Equal(t, AbortAlreadyConfigured, f.AbortReason)
	assert.Len(t, records.entries, 1, "no second record may be created")
}

func TestTerminalStepsTakeNoInput(t *testing.T) {
	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}
	f := New(auth, newMemRecords())
	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))
	require.NoError(t, f.SelectLocation(context.Background(), "loc-1"))
	require.True(t, f.Terminal())

	assert.ErrorIs(t, f.SubmitCredentials(context.Background(), "user", "pass"), ErrInvalidStep)
	assert.ErrorIs(t, f.SelectLocation(context.Background(), "loc-2"), ErrInvalidStep)
	assert.Equal(t, StepComplete, f.Step)
}

func TestEndToEndRerunAborts(t *testing.T) {
	records := newMemRecords()
	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}

	first := New(auth, records)
	require.NoError(t, first.SubmitCredentials(context.Background(), "user", "pass"))
	require.NoError(t, first.SelectLocation(context.Background(), "loc-1"))
	require.True(t, first.Completed())

	second := New(auth, records)
	require.NoError(t, second.SubmitCredentials(context.Background(), "user", "pass"))
	require.NoError(t, second.SelectLocation(context.Background(), "loc-1"))
	assert.True(t, second.Aborted())
	assert.Equal(t, AbortAlreadyConfigured, second.AbortReason)
	assert.Len(t, records.entries, 1)
}

func TestConcurrentFlowsSameLocation(t *testing.T) {
	records := newMemRecords()
	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}

	const n = 16
	flows := make([]*Flow, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		f := New(auth, records)
		require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))
		flows[i] = f
	}
	for _, f := range flows {
		wg.Add(1)
		go func(f *Flow) {
			defer wg.Done()
			_ = f.SelectLocation(context.Background(), "loc-1")
		}(f)
	}
	wg.Wait()

	var completed, aborted int
	for _, f := range flows {
		switch {
		case f.Completed():
			completed++
		case f.Aborted():
			aborted++
			assert.Equal(t, AbortAlreadyConfigured, f.AbortReason)
		}
	}
	assert.Equal(t, 1, completed, "exactly one racing flow may win")
	assert.Equal(t, n-1, aborted)
	assert.Len(t, records.entries, 1)
}

func TestFlowSurvivesSerialization(t *testing.T) {
	records := newMemRecords()
	auth := &fakeAuth{session: fakeSession{locations: twoLocations}}
	f := New(auth, records)
	require.NoError(t, f.SubmitCredentials(context.Background(), "user", "pass"))

	parked, err := json.Marshal(f)
	require.NoError(t, err)

	var restored Flow
	require.NoError(t, json.Unmarshal(parked, &restored))
	restored.Attach(auth, records)

	assert.Equal(t, StepInstallation, restored.Step)
	require.NoError(t, restored.SelectLocation(context.Background(), "loc-2"))
	assert.True(t, restored.Completed())
	assert.Equal(t, "user", restored.Record.Username)
	assert.Equal(t, "pass", restored.Record.Password)
}
