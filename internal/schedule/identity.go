package schedule

import "strings"

// The remote event's summary and description are the only carriers of
// participant identity; there is no side channel. EncodeSummary and
// DecodeSummary (and the description pair) must remain exact inverses of
// each other, so all string surgery lives here.
const (
	summaryPrefix     = "Appointment with "
	descriptionPrefix = "Auto-scheduled for "
)

// EncodeSummary renders the event summary carrying the patient's name.
func EncodeSummary(firstName, lastName string) string {
	return summaryPrefix + firstName + " " + lastName
}

// EncodeDescription renders the event description carrying the patient's email.
func EncodeDescription(patientEmail string) string {
	return descriptionPrefix + patientEmail
}

// DecodeSummary recovers the patient's name from an event summary.
// Best-effort: summaries that don't match the encoding yield empty fields.
func DecodeSummary(summary string) (firstName, lastName string) {
	if !strings.HasPrefix(summary, summaryPrefix) {
		return "", ""
	}
	names := strings.SplitN(strings.TrimPrefix(summary, summaryPrefix), " ", 2)
	if len(names) != 2 {
		return "", ""
	}
	return names[0], names[1]
}

// DecodeDescription recovers the patient's email from an event description.
// Returns "" when no address is recoverable.
func DecodeDescription(description string) string {
	if !strings.Contains(description, "@") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(description, descriptionPrefix))
}
