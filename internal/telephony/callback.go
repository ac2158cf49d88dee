package telephony

import (
	"net/http"
	"strings"
)

// StatusCallbackForm captures the subset of Exotel's terminal callback fields
// we care about. Exotel sends application/x-www-form-urlencoded, for both GET
// and POST deliveries.
//
// Keep it minimal and provider-adapter-only. The status vocabulary mapping is
// not made here.
type StatusCallbackForm struct {
	// Status is the provider's terminal status, lower-cased
	// (completed, busy, failed, no-answer, canceled, ...).
	Status string

	// CallSid is the provider call identifier.
	CallSid string

	// Duration is the call duration in seconds, as a raw string.
	Duration string
}

// ParseStatusCallback reads the callback fields from form or query values.
func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	f := StatusCallbackForm{
		Status:   strings.ToLower(strings.TrimSpace(r.FormValue("Status"))),
		CallSid:  strings.TrimSpace(r.FormValue("CallSid")),
		Duration: strings.TrimSpace(r.FormValue("Duration")),
	}
	return f, nil
}
