package calls

import "time"

// CallRecord is the persisted state of one outbound call attempt.
//
// Three independent entry points mutate a record with no coordinator
// process: the initiator acks the provider submission, the voice-script
// fetch marks the call live, and the terminal callback finalizes it. All
// coordination happens through the store; every transition is a field-level
// overwrite rather than a compare-and-swap, and TryAdvance makes the
// out-of-order cases explicit.

type CallRecord struct {
	CallID string   `json:"callId" db:"call_id"`
	UserID string   `json:"userId" db:"user_id"`
	Type   CallType `json:"callType" db:"call_type"`

	Status CallStatus `json:"status" db:"status"`

	// Result is set only at terminal status; empty otherwise.
	Result CallResult `json:"result,omitempty" db:"result"`

	// Provider correlation, assigned asynchronously after submission.
	ProviderCallID string `json:"providerCallId,omitempty" db:"provider_call_id"`
	ProviderStatus string `json:"providerStatus,omitempty" db:"provider_status"`

	// DurationSeconds is the final call duration reported by the provider.
	DurationSeconds int `json:"callDuration" db:"call_duration"`

	// Voice-script payload.
	PatientName   string `json:"patientName,omitempty" db:"patient_name"`
	PatientPhone  string `json:"patientPhone,omitempty" db:"patient_phone"`
	DoctorName    string `json:"doctorName,omitempty" db:"doctor_name"`
	ClinicPhone   string `json:"clinicPhone,omitempty" db:"clinic_phone"`
	PreferredTime string `json:"preferredTime,omitempty" db:"preferred_time"`
	Symptoms      string `json:"symptoms,omitempty" db:"symptoms"`

	// Emergency payload: a free-text location description plus the
	// serialized structured location (address/lat/lng).
	LocationText string `json:"locationText,omitempty" db:"location_text"`
	LocationJSON string `json:"locationJson,omitempty" db:"location_json"`

	// EmergencyID links fan-out calls to their parent emergency event.
	EmergencyID string `json:"emergencyId,omitempty" db:"emergency_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CallType string

const (
	TypeAppointment CallType = "appointment"
	TypeEmergency   CallType = "emergency"
)

type CallStatus string

const (
	StatusInitiating CallStatus = "initiating"
	StatusCalling    CallStatus = "calling"
	StatusInProgress CallStatus = "in_progress"
	StatusConfirmed  CallStatus = "confirmed"
	StatusFailed     CallStatus = "failed"
)

type CallResult string

const (
	ResultConfirmed CallResult = "confirmed"
	ResultFailed    CallResult = "failed"
)

// Terminal reports whether no further transition occurs from s.
func (s CallStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

var statusRank = map[CallStatus]int{
	StatusInitiating: 0,
	StatusCalling:    1,
	StatusInProgress: 2,
	StatusConfirmed:  3,
	StatusFailed:     3,
}

// TryAdvance validates a requested status transition against the monotonic
// path initiating → calling → in_progress → {confirmed|failed}.
//
// Re-applying the current status is accepted (idempotent). Terminal states
// absorb everything except a different terminal status: the reconciler's
// last-terminal-wins overwrite is a deliberate exception applied without
// this guard.
func TryAdvance(current, requested CallStatus) (CallStatus, bool) {
	curRank, ok := statusRank[current]
	if !ok {
		return current, false
	}
	reqRank, ok := statusRank[requested]
	if !ok {
		return current, false
	}
	if requested == current {
		return current, true
	}
	if current.Terminal() {
		return current, false
	}
	if reqRank > curRank {
		return requested, true
	}
	return current, false
}
