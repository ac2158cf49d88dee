package telephony

import (
	"strings"
	"testing"
)

func TestSanitize_DeletesMarkupCharacters(t *testing.T) {
	in := `Tom & Jerry <script>alert(1)</script> a > b`
	out := Sanitize(in)

	if strings.ContainsAny(out, "<>") {
		t.Fatalf("expected angle brackets removed, got %q", out)
	}
	if strings.Contains(out, "&") {
		t.Fatalf("expected ampersand replaced, got %q", out)
	}
	if !strings.Contains(out, "Tom and Jerry") {
		t.Fatalf("expected ampersand to become the word and, got %q", out)
	}
	// Deletion, not encoding: the inner text survives without its brackets.
	if !strings.Contains(out, "script") {
		t.Fatalf("expected bracket contents kept, got %q", out)
	}
}

func TestApologyScript_WellFormed(t *testing.T) {
	doc := ApologyScript("call details missing")
	if !strings.HasPrefix(doc, "<?xml") {
		t.Fatalf("expected xml header, got %q", doc)
	}
	if !strings.Contains(doc, "<Say voice=\"woman\">") {
		t.Fatalf("expected Say verb, got %q", doc)
	}
	if !strings.Contains(doc, "Sorry, call details missing. Goodbye.") {
		t.Fatalf("unexpected body %q", doc)
	}
}

func TestAppointmentMessage_RepeatsAndIncludesDetails(t *testing.T) {
	msg := AppointmentScript{
		PatientName:   "Asha",
		PatientPhone:  "9000000000",
		DoctorName:    "Dr. Rao",
		PreferredTime: "tomorrow 5pm",
		Symptoms:      "fever and cough",
	}.Message()

	if got := strings.Count(msg, "Dr. Rao"); got != 2 {
		t.Fatalf("expected doctor name twice, got %d in %q", got, msg)
	}
	if got := strings.Count(msg, "tomorrow 5pm"); got != 2 {
		t.Fatalf("expected preferred time twice, got %d", got)
	}
	if got := strings.Count(msg, "fever and cough"); got != 2 {
		t.Fatalf("expected symptoms twice, got %d", got)
	}
	if got := strings.Count(msg, "9000000000"); got != 2 {
		t.Fatalf("expected callback number twice, got %d", got)
	}
	if !strings.Contains(msg, "This message will now repeat.") {
		t.Fatalf("expected repeat marker")
	}
}

func TestAppointmentMessage_Defaults(t *testing.T) {
	msg := AppointmentScript{}.Message()
	if !strings.Contains(msg, "a patient") || !strings.Contains(msg, "the doctor") {
		t.Fatalf("expected generic fallbacks, got %q", msg)
	}
	if !strings.Contains(msg, "at their earliest convenience") {
		t.Fatalf("expected generic time, got %q", msg)
	}
	if !strings.Contains(msg, "Please call the patient back to confirm the appointment.") {
		t.Fatalf("expected generic callback request, got %q", msg)
	}
}

func TestEmergencyMessage_RepeatsAndUrges(t *testing.T) {
	msg := EmergencyScript{
		PatientName:  "Ravi",
		PatientPhone: "9111111111",
		LocationText: "12 MG Road, Bengaluru",
	}.Message()

	if got := strings.Count(msg, "URGENT EMERGENCY ALERT"); got != 2 {
		t.Fatalf("expected alert framing twice, got %d", got)
	}
	if got := strings.Count(msg, "12 MG Road, Bengaluru"); got != 2 {
		t.Fatalf("expected location twice, got %d", got)
	}
	if got := strings.Count(msg, "call one one two"); got != 2 {
		t.Fatalf("expected helpline urging twice, got %d", got)
	}
}

func TestEmergencyMessage_UnknownLocation(t *testing.T) {
	msg := EmergencyScript{PatientName: "Ravi"}.Message()
	if !strings.Contains(msg, "an unknown location") {
		t.Fatalf("expected unknown-location fallback, got %q", msg)
	}
	if strings.Contains(msg, "call them back") {
		t.Fatalf("expected no callback part without a number, got %q", msg)
	}
}
