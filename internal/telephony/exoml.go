package telephony

import (
	"fmt"
	"strings"
)

// ExoML is the markup Exotel fetches when the dialed party answers. Every
// response from the voice-script endpoint must be a valid document: the
// provider cannot interpret HTTP errors, so failure paths render an apology
// script instead.

// Sanitize strips characters that would break the script markup.
// Ampersand becomes the spoken word "and"; angle brackets are deleted
// outright, not entity-encoded. Downstream parsing tolerance is unknown, so
// this deletion rule is kept exactly as the provider integration has always
// behaved.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

// SayDocument wraps an already-sanitized message in a spoken-text response.
func SayDocument(message string) string {
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<Response>\n" +
		"  <Say voice=\"woman\">" + message + "</Say>\n" +
		"</Response>"
}

// ApologyScript is the generic failure response. Always a well-formed
// document, never an HTTP error body.
func ApologyScript(reason string) string {
	return SayDocument(Sanitize(fmt.Sprintf("Sorry, %s. Goodbye.", reason)))
}

type AppointmentScript struct {
	PatientName   string
	PatientPhone  string
	DoctorName    string
	PreferredTime string
	Symptoms      string
}

// Message renders the appointment request read out to the clinic.
// The whole message is spoken twice: unattended voice messages are
// conventionally repeated so a listener who missed the start still catches
// the content.
func (a AppointmentScript) Message() string {
	patient := a.PatientName
	if patient == "" {
		patient = "a patient"
	}
	doctor := a.DoctorName
	if doctor == "" {
		doctor = "the doctor"
	}
	when := a.PreferredTime
	if when == "" {
		when = "at their earliest convenience"
	}

	symptomsPart := ""
	if a.Symptoms != "" {
		symptomsPart = fmt.Sprintf(" The patient is experiencing: %s.", a.Symptoms)
	}
	callbackPart := " Please call the patient back to confirm the appointment."
	if a.PatientPhone != "" {
		callbackPart = fmt.Sprintf(" Please call the patient back at %s to confirm the appointment.", a.PatientPhone)
	}

	body := fmt.Sprintf(
		"Hello. This is CareCall, an automated medical assistant. "+
			"I am calling on behalf of %s to request an appointment with %s. "+
			"The preferred appointment time is %s.%s%s",
		patient, doctor, when, symptomsPart, callbackPart,
	)

	return body + " This message will now repeat. " + body + " Thank you and have a good day."
}

type EmergencyScript struct {
	PatientName  string
	PatientPhone string
	LocationText string
}

// Message renders the urgent alert read out to an emergency contact.
// Repeated in full, same as the appointment script.
func (e EmergencyScript) Message() string {
	patient := e.PatientName
	if patient == "" {
		patient = "someone"
	}
	location := e.LocationText
	if location == "" {
		location = "an unknown location"
	}

	callbackPart := ""
	if e.PatientPhone != "" {
		callbackPart = fmt.Sprintf(" Please call them back immediately at %s.", e.PatientPhone)
	}

	body := fmt.Sprintf(
		"URGENT EMERGENCY ALERT. This is an automated message from CareCall. "+
			"%s is in an emergency situation and needs immediate help. "+
			"Their location is %s.%s Please respond immediately or call one one two.",
		patient, location, callbackPart,
	)

	return body + " This message will now repeat. " + body
}
