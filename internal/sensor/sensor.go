package sensor

// AlarmState is the canonical state of a Homely alarm system as exposed
// to the outside. It is a closed set: every raw value the upstream API
// can produce, including ones added in the future, maps onto exactly one
// of these values.
type AlarmState string

const (
	StateDisarmed   AlarmState = "disarmed"
	StateArmedAway  AlarmState = "armed_away"
	StateArmedHome  AlarmState = "armed_home"
	StateArmedNight AlarmState = "armed_night"
	StateBreached   AlarmState = "breached"
	StatePending    AlarmState = "pending"
	StateUnknown    AlarmState = "unknown"
)

// raw alarm state vocabulary of the Homely API
// in case Homely adds states, Project falls back to StateUnknown
var alarmStates = map[string]AlarmState{
	"DISARMED":            StateDisarmed,
	"ARMED_AWAY":          StateArmedAway,
	"ARMED_STAY":          StateArmedHome,
	"ARMED_NIGHT":         StateArmedNight,
	"BREACHED":            StateBreached,
	"ALARM_PENDING":       StatePending,
	"ALARM_STAY_PENDING":  StatePending,
	"ARMED_NIGHT_PENDING": StatePending,
	"UNKNOWN":             StateUnknown,
}

// Project maps a raw upstream alarm state onto an AlarmState.
// It is total: any unrecognized input, the empty string included,
// yields StateUnknown and never an error.
func Project(raw string) AlarmState {
	if state, ok := alarmStates[raw]; ok {
		return state
	}
	return StateUnknown
}

// Options returns the full AlarmState value space in a fixed order,
// for surfaces that advertise the set of possible states
func Options() []AlarmState {
	return []AlarmState{
		StateDisarmed,
		StateArmedAway,
		StateArmedHome,
		StateArmedNight,
		StateBreached,
		StatePending,
		StateUnknown,
	}
}
