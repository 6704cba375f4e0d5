/*
Package flow implements the two-step setup procedure that onboards a
Homely account: collect credentials, then pick one of the account's
installations. A completed flow yields exactly one Record per physical
installation.
*/
package flow

import (
	"context"
	"errors"

	"HomelyBridge/pkg/homelyapi"
)

// Step is the current position of a Flow in the setup procedure
type Step string

const (
	// StepUser collects and validates the account credentials
	StepUser Step = "user"
	// StepInstallation selects one of the account's locations
	StepInstallation Step = "installation"
	// StepComplete is terminal, the flow produced a Record
	StepComplete Step = "complete"
	// StepAborted is terminal, see the flow's AbortReason
	StepAborted Step = "aborted"
)

// AbortReason identifies why a flow ended in StepAborted; the values
// double as message catalog keys
type AbortReason string

const (
	AbortAlreadyConfigured AbortReason = "already_configured"
	AbortLocationsNone     AbortReason = "locations_none"
	AbortLocationsError    AbortReason = "locations_error"
)

// recoverable errors: the flow stays in its current step and the same
// input may be retried
var (
	ErrInvalidAuth   = errors.New("flow: invalid credentials")
	ErrResponse      = errors.New("flow: upstream request failed")
	ErrMissingField  = errors.New("flow: username and password are required")
	ErrInvalidStep   = errors.New("flow: operation not valid in current step")
	ErrUnknownChoice = errors.New("flow: location is not among the offered ones")
)

// Session is the authenticated account context carried from the
// credentials step into the installation step
type Session interface {
	GetLocations() ([]homelyapi.Location, error)
}

// Authenticator validates account credentials against the upstream API
type Authenticator interface {
	Login(username, password string) (Session, error)
}

// Records is the shared store of completed setups, one per installation.
// Insert must check-and-insert atomically so two concurrent flows cannot
// both configure the same location.
type Records interface {
	Exists(ctx context.Context, locationID string) (bool, error)
	Insert(ctx context.Context, record Record) (inserted bool, err error)
}

// Record is the artifact of a completed flow
type Record struct {
	Username      string `json:"u"`
	Password      string `json:"p"`
	LocationID    string `json:"lid"`
	LocationName  string `json:"ln,omitempty"`
	GatewaySerial string `json:"gw,omitempty"`
}

// Flow is one setup attempt. It is not safe for concurrent use; run one
// flow instance per setup attempt. Exported fields are serialized when a
// flow is parked between requests, collaborators must be re-attached
// with Attach after restoring.
type Flow struct {
	Step        Step                 `json:"s"`
	Username    string               `json:"u,omitempty"`
	Password    string               `json:"p,omitempty"`
	Locations   []homelyapi.Location `json:"l,omitempty"`
	AbortReason AbortReason          `json:"a,omitempty"`
	Record      *Record              `json:"r,omitempty"`

	auth    Authenticator
	records Records
	session Session
}

// New creates a flow in StepUser with the given collaborators
func New(auth Authenticator, records Records) *Flow {
	f := &Flow{Step: StepUser}
	f.Attach(auth, records)
	return f
}

// Attach (re-)binds the flow's collaborators, e.g. after the flow was
// restored from its serialized form
func (f *Flow) Attach(auth Authenticator, records Records) {
	f.auth = auth
	f.records = records
}

// SubmitCredentials validates the credentials and, on success, advances
// to StepInstallation and fetches the account's locations. A fetch
// failure or an empty location set aborts the flow. When the account has
// exactly one location it is selected right away.
//
// ErrInvalidAuth and ErrResponse are recoverable: the flow stays in
// StepUser and new credentials may be submitted.
func (f *Flow) SubmitCredentials(ctx context.Context, username, password string) error {
	if f.Step != StepUser {
		return ErrInvalidStep
	}
	if username == "" || password == "" {
		// rejected before any network call
		return ErrMissingField
	}

	session, err := f.auth.Login(username, password)
	if err != nil {
		if errors.Is(err, homelyapi.ErrInvalidAuth) {
			return ErrInvalidAuth
		}
		return ErrResponse
	}

	f.Username = username
	f.Password = password
	f.session = session
	f.Step = StepInstallation

	locations, err := session.GetLocations()
	if err != nil {
		f.abort(AbortLocationsError)
		return nil
	}
	if len(locations) == 0 {
		f.abort(AbortLocationsNone)
		return nil
	}
	f.Locations = locations

	if len(locations) == 1 {
		return f.SelectLocation(ctx, locations[0].LocationID)
	}
	return nil
}

// SelectLocation completes the flow with the chosen location. The
// location must be one of the previously fetched ones; an unknown ID is
// recoverable and leaves the flow unchanged. Selecting an already
// configured location aborts the flow.
func (f *Flow) SelectLocation(ctx context.Context, locationID string) error {
	if f.Step != StepInstallation {
		return ErrInvalidStep
	}

	var chosen *homelyapi.Location
	for i := range f.Locations {
		if f.Locations[i].LocationID == locationID {
			chosen = &f.Locations[i]
			break
		}
	}
	if chosen == nil {
		return ErrUnknownChoice
	}

	record := Record{
		Username:      f.Username,
		Password:      f.Password,
		LocationID:    chosen.LocationID,
		LocationName:  chosen.Name,
		GatewaySerial: chosen.GatewaySerial,
	}
	inserted, err := f.records.Insert(ctx, record)
	if err != nil {
		return ErrResponse
	}
	if !inserted {
		f.abort(AbortAlreadyConfigured)
		return nil
	}

	f.Record = &record
	f.Step = StepComplete
	return nil
}

func (f *Flow) abort(reason AbortReason) {
	f.Step = StepAborted
	f.AbortReason = reason
}

// Completed reports whether the flow ended successfully
func (f *Flow) Completed() bool {
	return f.Step == StepComplete
}

// Aborted reports whether the flow ended in a terminal failure
func (f *Flow) Aborted() bool {
	return f.Step == StepAborted
}

// Terminal reports whether the flow can take no further input
func (f *Flow) Terminal() bool {
	return f.Completed() || f.Aborted()
}
