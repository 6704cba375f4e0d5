package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"HomelyBridge/internal/db"
	rl "HomelyBridge/internal/db/ratelimiters"
	"HomelyBridge/internal/flow"
	"HomelyBridge/internal/locales"
	"HomelyBridge/internal/metrics"
	"HomelyBridge/pkg/homelyapi"
)

// response bodies
const (
	InternalErrorResponseBody  = "Internal error"
	RateLimitedResponseBody    = "Rate limited"
	InvalidRequestResponseBody = "Invalid request"
)

const timeFormat = time.RFC3339

// flow collaborators; package-level so tests can swap in fakes
var (
	flowAuth    flow.Authenticator = homelyAuthenticator{}
	flowRecords flow.Records       = db.ConfigEntryStore{}
)

// homelyAuthenticator adapts the Homely API client to the setup flow
type homelyAuthenticator struct{}

func (homelyAuthenticator) Login(username, password string) (flow.Session, error) {
	client := homelyapi.NewClient(username, password)
	if err := client.Authenticate(); err != nil {
		return nil, err
	}
	return client, nil
}

// flowRequest is the body of the flow step requests
type flowRequest struct {
	State    string `json:"state,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Location string `json:"location,omitempty"`
}

type flowField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type locationOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// flowResponse describes the state of a setup flow after a request:
// which step to show next, a recoverable error to display in place, or
// the terminal outcome
type flowResponse struct {
	State        string           `json:"state"`
	Step         string           `json:"step"`
	Title        string           `json:"title,omitempty"`
	Fields       []flowField      `json:"fields,omitempty"`
	Locations    []locationOption `json:"locations,omitempty"`
	Error        string           `json:"error,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	AbortReason  string           `json:"abort_reason,omitempty"`
	AbortMessage string           `json:"abort_message,omitempty"`
	LocationID   string           `json:"location_id,omitempty"`
}

// HandleFlowStart handles an incoming request to start a new setup flow
func HandleFlowStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}
	if !rl.FlowRequestAllowed(r.Context(), r.RemoteAddr) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprintln(w, RateLimitedResponseBody)
		return
	}

	state, err := db.NewFlowState()
	if err != nil {
		log.Errorf("failed to make flow state: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}

	f := flow.New(flowAuth, flowRecords)
	if err = db.PutFlowSession(state, f); err != nil {
		log.Errorf("failed to put flow session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}

	metrics.FlowsStarted.Inc()
	respondJSON(w, buildFlowResponse(state, f, nil, requestLocale(r)))
}

// HandleFlowUser handles the credentials step of a setup flow
func HandleFlowUser(w http.ResponseWriter, r *http.Request) {
	handleFlowStep(w, r, func(f *flow.Flow, req flowRequest) error {
		return f.SubmitCredentials(r.Context(), req.Username, req.Password)
	})
}

// HandleFlowInstallation handles the installation selection step of a
// setup flow
func HandleFlowInstallation(w http.ResponseWriter, r *http.Request) {
	handleFlowStep(w, r, func(f *flow.Flow, req flowRequest) error {
		return f.SelectLocation(r.Context(), req.Location)
	})
}

// handleFlowStep restores the parked flow, runs one step operation on it
// and parks or finishes it again
func handleFlowStep(w http.ResponseWriter, r *http.Request, op func(*flow.Flow, flowRequest) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}
	if !rl.FlowRequestAllowed(r.Context(), r.RemoteAddr) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprintln(w, RateLimitedResponseBody)
		return
	}

	defer r.Body.Close()
	var req flowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.State == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}

	f, err := db.GetFlowSession(req.State)
	if err == db.ErrFlowSessionNotFound {
		log.WithFields(log.Fields{
			"IP":    r.RemoteAddr,
			"state": req.State,
		}).Info("flow session not found or expired")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}
	if err != nil {
		log.Errorf("failed to get flow session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}
	f.Attach(flowAuth, flowRecords)

	stepErr := op(f, req)

	if f.Terminal() {
		if err = db.DeleteFlowSession(req.State); err != nil {
			log.Errorf("failed to delete flow session: %v", err)
		}
		if f.Completed() {
			metrics.FlowOutcomes.WithLabelValues("complete").Inc()
			log.WithField("location", f.Record.LocationID).Info("installation configured")
		} else {
			metrics.FlowOutcomes.WithLabelValues(string(f.AbortReason)).Inc()
		}
	} else if err = db.PutFlowSession(req.State, f); err != nil {
		log.Errorf("failed to put flow session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}

	respondJSON(w, buildFlowResponse(req.State, f, stepErr, requestLocale(r)))
}

// buildFlowResponse renders the flow's current step with the localized
// titles, field labels and outcome messages
func buildFlowResponse(state string, f *flow.Flow, stepErr error, locale *locales.Locale) flowResponse {
	resp := flowResponse{State: state, Step: string(f.Step)}

	switch f.Step {
	case flow.StepUser:
		resp.Title = locale.UserStepTitle
		resp.Fields = []flowField{
			{Name: "username", Label: locale.UsernameFieldLabel, Description: locale.UsernameFieldDescription},
			{Name: "password", Label: locale.PasswordFieldLabel},
		}
	case flow.StepInstallation:
		resp.Title = locale.InstallationStepTitle
		resp.Fields = []flowField{
			{Name: "location", Label: locale.LocationFieldLabel, Description: locale.LocationFieldDescription},
		}
		for _, location := range f.Locations {
			resp.Locations = append(resp.Locations, locationOption{ID: location.LocationID, Name: location.Name})
		}
	case flow.StepComplete:
		resp.LocationID = f.Record.LocationID
	case flow.StepAborted:
		resp.AbortReason = string(f.AbortReason)
		resp.AbortMessage = locale.AbortMessage(f.AbortReason)
	}

	switch {
	case stepErr == nil:
	case errors.Is(stepErr, flow.ErrInvalidAuth):
		resp.Error = "invalid_auth"
		resp.ErrorMessage = locale.InvalidAuthErrorMessage
	case errors.Is(stepErr, flow.ErrResponse):
		resp.Error = "response_error"
		resp.ErrorMessage = locale.ResponseErrorErrorMessage
	case errors.Is(stepErr, flow.ErrMissingField), errors.Is(stepErr, flow.ErrUnknownChoice), errors.Is(stepErr, flow.ErrInvalidStep):
		resp.Error = "invalid_input"
		resp.ErrorMessage = stepErr.Error()
	}
	return resp
}

// alarmStateResponse is the sensor read model of one installation
type alarmStateResponse struct {
	LocationID  string            `json:"location_id"`
	State       string            `json:"state"`
	DisplayName string            `json:"display_name"`
	RawState    string            `json:"raw_state,omitempty"`
	Options     map[string]string `json:"options"`
	UpdatedAt   string            `json:"updated_at"`
}

// HandleAlarmState handles an incoming alarm state read request
func HandleAlarmState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}

	locationID := r.URL.Query().Get("location")
	if locationID == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}

	snapshot, err := db.GetSnapshot(locationID)
	if err == db.ErrSnapshotNotFound {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}
	if err != nil {
		log.Errorf("failed to get snapshot: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}

	locale := requestLocale(r)
	respondJSON(w, alarmStateResponse{
		LocationID:  snapshot.LocationID,
		State:       string(snapshot.State),
		DisplayName: locale.StateName(snapshot.State),
		RawState:    snapshot.RawState,
		Options:     locale.StateOptions(),
		UpdatedAt:   snapshot.UpdatedAt.Format(timeFormat),
	})
}

// HandleDevices handles an incoming device readings request
func HandleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}

	locationID := r.URL.Query().Get("location")
	if locationID == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}

	snapshot, err := db.GetSnapshot(locationID)
	if err == db.ErrSnapshotNotFound {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, InvalidRequestResponseBody)
		return
	}
	if err != nil {
		log.Errorf("failed to get snapshot: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, InternalErrorResponseBody)
		return
	}

	respondJSON(w, snapshot.Devices)
}

// requestLocale resolves the locale of a request from the lang query
// parameter, falling back to the Accept-Language header
func requestLocale(r *http.Request) *locales.Locale {
	code := r.URL.Query().Get("lang")
	if code == "" {
		if header := r.Header.Get("Accept-Language"); len(header) >= 2 {
			code = strings.ToLower(header[:2])
		}
	}
	return locales.Get(code)
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// middleware provides some useful middlewares for the server
func middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() { // returns an HTTP 500 response if the next handler got panicked
			if err := recover(); err != nil {
				log.Errorf("error recovered in request \"%s %s\": %v", r.Method, r.URL.Path, err)
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintln(w, InternalErrorResponseBody)
				return
			}
		}()

		// gets client's real IP if serving behind Cloudflare
		if ip := r.Header.Get("Cf-Connecting-Ip"); ip != "" {
			r.RemoteAddr = ip
		}

		next.ServeHTTP(w, r)
	})
}
