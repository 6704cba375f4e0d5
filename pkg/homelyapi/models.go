package homelyapi

import "time"

// TokenResponse represents a token grant or refresh API response
// Endpoints: /oauth/token, /oauth/refresh-token
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// Location represents a single installation (gateway/site) the account
// has access to
// Endpoint: /locations
type Location struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	UserID        string `json:"userId"`
	LocationID    string `json:"locationId"`
	GatewaySerial string `json:"gatewayserial"`
}

// Home represents the full state of one installation
// Endpoint: /home/{locationID}
type Home struct {
	LocationID         string   `json:"locationId"`
	GatewaySerial      string   `json:"gatewayserial"`
	Name               string   `json:"name"`
	AlarmState         string   `json:"alarmState"`
	UserRoleAtLocation string   `json:"userRoleAtLocation"`
	Devices            []Device `json:"devices"`
}

// Device represents a single device in a Home
type Device struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	SerialNumber string   `json:"serialNumber"`
	Location     string   `json:"location"`
	Online       bool     `json:"online"`
	ModelID      string   `json:"modelId"`
	ModelName    string   `json:"modelName"`
	Features     Features `json:"features"`
}

// Features holds the feature groups a Device reports; groups the device
// does not have are nil
type Features struct {
	Alarm       *Alarm       `json:"alarm,omitempty"`
	Temperature *Temperature `json:"temperature,omitempty"`
	Battery     *Battery     `json:"battery,omitempty"`
	Diagnostic  *Diagnostic  `json:"diagnostic,omitempty"`
}

type Alarm struct {
	States AlarmStates `json:"states"`
}

type AlarmStates struct {
	Alarm  StateBool `json:"alarm"`
	Tamper StateBool `json:"tamper"`
}

type Temperature struct {
	States TemperatureStates `json:"states"`
}

type TemperatureStates struct {
	Temperature StateFloat `json:"temperature"`
}

type Battery struct {
	States BatteryStates `json:"states"`
}

type BatteryStates struct {
	Low     StateBool  `json:"low"`
	Defect  StateBool  `json:"defect"`
	Voltage StateFloat `json:"voltage"`
}

type Diagnostic struct {
	States DiagnosticStates `json:"states"`
}

type DiagnosticStates struct {
	NetworkLinkStrength StateInt    `json:"networklinkstrength"`
	NetworkLinkAddress  StateString `json:"networklinkaddress"`
}

type StateBool struct {
	Value       bool      `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type StateInt struct {
	Value       int       `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type StateFloat struct {
	Value       float64   `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type StateString struct {
	Value       string    `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}
