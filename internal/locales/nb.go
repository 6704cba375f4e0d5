package locales

import "HomelyBridge/internal/sensor"

var nb = Locale{
	UserStepTitle:            "Logg inn på Homely",
	UsernameFieldLabel:       "Brukernavn",
	UsernameFieldDescription: "E-postadressen til Homely-kontoen din.",
	PasswordFieldLabel:       "Passord",

	InstallationStepTitle:    "Velg installasjon",
	LocationFieldLabel:       "Installasjon",
	LocationFieldDescription: "Homely-installasjonen som skal legges til. Bare installasjoner der kontoen din er eier eller administrator vises.",

	InvalidAuthErrorMessage:   "Ugyldig brukernavn eller passord.",
	ResponseErrorErrorMessage: "Uventet svar fra Homely, prøv igjen.",

	AlreadyConfiguredAbortMessage: "Denne installasjonen er allerede konfigurert.",
	LocationsNoneAbortMessage:     "Ingen installasjoner er tilgjengelige for denne kontoen.",
	LocationsErrorAbortMessage:    "Kunne ikke hente kontoens installasjoner.",

	StateNames: map[sensor.AlarmState]string{
		sensor.StateDisarmed:   "Avslått",
		sensor.StateArmedAway:  "Borte-sikring",
		sensor.StateArmedHome:  "Hjemme-sikring",
		sensor.StateArmedNight: "Natt-sikring",
		sensor.StateBreached:   "Utløst",
		sensor.StatePending:    "Venter",
		sensor.StateUnknown:    "Ukjent",
	},
	StateOptionNames: map[sensor.AlarmState]string{
		sensor.StateDisarmed:   "Avslått",
		sensor.StateArmedAway:  "Borte-sikring",
		sensor.StateArmedHome:  "Hjemme-sikring",
		sensor.StateArmedNight: "Natt-sikring",
		sensor.StateBreached:   "Utløst",
		sensor.StatePending:    "Venter",
		sensor.StateUnknown:    "Ukjent",
	},
}
