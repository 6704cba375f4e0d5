package locales

import "HomelyBridge/internal/sensor"

var en = Locale{
	UserStepTitle:            "Sign in to Homely",
	UsernameFieldLabel:       "Username",
	UsernameFieldDescription: "The e-mail address of your Homely account.",
	PasswordFieldLabel:       "Password",

	InstallationStepTitle:    "Select installation",
	LocationFieldLabel:       "Installation",
	LocationFieldDescription: "The Homely installation to add. Only installations where your account is owner or administrator are listed.",

	InvalidAuthErrorMessage:   "Invalid username or password.",
	ResponseErrorErrorMessage: "Unexpected response from Homely, please try again.",

	AlreadyConfiguredAbortMessage: "This installation is already configured.",
	LocationsNoneAbortMessage:     "No installations are available for this account.",
	LocationsErrorAbortMessage:    "Failed to fetch the installations of this account.",

	StateNames: map[sensor.AlarmState]string{
		sensor.StateDisarmed:   "Disarmed",
		sensor.StateArmedAway:  "Armed away",
		sensor.StateArmedHome:  "Armed home",
		sensor.StateArmedNight: "Armed night",
		sensor.StateBreached:   "Breached",
		sensor.StatePending:    "Pending",
		sensor.StateUnknown:    "Unknown",
	},
	StateOptionNames: map[sensor.AlarmState]string{
		sensor.StateDisarmed:   "Disarmed",
		sensor.StateArmedAway:  "Armed away",
		sensor.StateArmedHome:  "Armed home",
		sensor.StateArmedNight: "Armed night",
		sensor.StateBreached:   "Breached",
		sensor.StatePending:    "Pending",
		sensor.StateUnknown:    "Unknown",
	},
}
