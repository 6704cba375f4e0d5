package locales

import (
	"HomelyBridge/internal/flow"
	"HomelyBridge/internal/sensor"
)

// Locale represents a locale (group of translations) covering every
// user-facing outcome of the setup flow and every alarm state
type Locale struct {
	// setup flow, credentials step
	UserStepTitle            string
	UsernameFieldLabel       string
	UsernameFieldDescription string
	PasswordFieldLabel       string

	// setup flow, installation step
	InstallationStepTitle    string
	LocationFieldLabel       string
	LocationFieldDescription string

	// recoverable flow errors, the user may retry the same step
	InvalidAuthErrorMessage   string
	ResponseErrorErrorMessage string

	// terminal flow aborts, a new flow must be started
	AlreadyConfiguredAbortMessage string
	LocationsNoneAbortMessage     string
	LocationsErrorAbortMessage    string

	// StateNames are the display names of the alarm states;
	// StateOptionNames is the identical set advertised as the
	// selectable-options enumeration. Both must cover the full
	// sensor.Options() value space and never diverge from each other.
	StateNames       map[sensor.AlarmState]string
	StateOptionNames map[sensor.AlarmState]string
}

var defaultLocale *Locale

func init() {
	defaultLocale = &en
}

// Get returns a Locale by the given language code
func Get(languageCode string) *Locale {
	switch languageCode {
	case "en":
		return &en
	case "nb", "no":
		return &nb
	default:
		return defaultLocale
	}
}

// StateName returns the display name of the given alarm state
func (l *Locale) StateName(state sensor.AlarmState) string {
	if name, ok := l.StateNames[state]; ok {
		return name
	}
	return l.StateNames[sensor.StateUnknown]
}

// StateOptions returns the localized selectable-options enumeration in
// the fixed sensor.Options() order
func (l *Locale) StateOptions() map[string]string {
	options := make(map[string]string, len(l.StateOptionNames))
	for _, state := range sensor.Options() {
		options[string(state)] = l.StateOptionNames[state]
	}
	return options
}

// AbortMessage returns the message for the given terminal abort reason
func (l *Locale) AbortMessage(reason flow.AbortReason) string {
	switch reason {
	case flow.AbortAlreadyConfigured:
		return l.AlreadyConfiguredAbortMessage
	case flow.AbortLocationsNone:
		return l.LocationsNoneAbortMessage
	case flow.AbortLocationsError:
		return l.LocationsErrorAbortMessage
	default:
		return ""
	}
}
