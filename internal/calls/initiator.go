package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carecall-backend/internal/telephony"
	"carecall-backend/pkg/logger"

	"github.com/google/uuid"
)

// Initiator builds and submits an outbound call request: it persists the
// call record, constructs the voice-script and callback URLs for the
// provider, and submits the dial. The record write is best-effort (the
// voice script degrades to a generic apology if it is missing) but the
// dial outcome is the critical result and always propagates.

// ErrCallCapExceeded is returned when a user already has the maximum number
// of concurrent outbound appointment calls in flight.
var ErrCallCapExceeded = errors.New("calls: too many concurrent calls for user")

// Via tags the channel an attempt was actually initiated on.
const (
	ViaCall = "call"
	ViaSMS  = "sms"
)

// SlotLimiter bounds concurrent outbound calls per user. Acquire and Release
// must be idempotent per call id: the provider may deliver duplicate terminal
// callbacks, and a release for a call that never acquired must be a no-op.
type SlotLimiter interface {
	Acquire(ctx context.Context, userID, callID string) (bool, error)
	Release(ctx context.Context, userID, callID string) error
}

type Initiator struct {
	Store  Store
	Dialer telephony.Dialer
	SMS    telephony.SMSSender

	// Slots enables the per-user concurrent-call cap; nil disables it.
	Slots SlotLimiter

	// BaseURL is the public address the provider fetches the voice script
	// and delivers the callback against.
	BaseURL string

	NewID func() string
	Now   func() time.Time
}

type InitiateRequest struct {
	UserID string
	To     string
	Type   CallType

	// AllowSMSFallback converts a provider failure into an SMS attempt
	// instead of an error (emergency flow). FallbackMessage is the text
	// sent in that case.
	AllowSMSFallback bool
	FallbackMessage  string

	// Voice-script payload.
	PatientName   string
	PatientPhone  string
	DoctorName    string
	ClinicPhone   string
	PreferredTime string
	Symptoms      string
	LocationText  string
	LocationJSON  string
	EmergencyID   string
}

type InitiateResult struct {
	CallID string     `json:"callId"`
	Status CallStatus `json:"status"`
	Via    string     `json:"via"`
}

func (ini *Initiator) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	log := logger.From(ctx)

	newID := ini.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := ini.Now
	if now == nil {
		now = time.Now
	}

	if req.To == "" {
		return InitiateResult{}, errors.New("calls: destination number required")
	}

	callID := newID()

	// Concurrency cap applies to appointment calls only; emergencies are
	// never throttled. Checked before the record write so a throttled retry
	// leaves nothing behind.
	slotAcquired := false
	if req.Type == TypeAppointment && ini.Slots != nil && req.UserID != "" {
		ok, err := ini.Slots.Acquire(ctx, req.UserID, callID)
		if err != nil {
			// Favor delivery over throttling when redis is unavailable.
			log.Warn("call slot acquire failed", "user_id", req.UserID, "err", err)
		} else if !ok {
			return InitiateResult{}, ErrCallCapExceeded
		} else {
			slotAcquired = true
		}
	}

	rec := CallRecord{
		CallID:        callID,
		UserID:        req.UserID,
		Type:          req.Type,
		Status:        StatusInitiating,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		DoctorName:    req.DoctorName,
		ClinicPhone:   req.ClinicPhone,
		PreferredTime: req.PreferredTime,
		Symptoms:      req.Symptoms,
		LocationText:  req.LocationText,
		LocationJSON:  req.LocationJSON,
		EmergencyID:   req.EmergencyID,
		CreatedAt:     now().UTC(),
	}
	// Best-effort: a failed create must not abort the call attempt. The
	// voice script falls back to a generic apology if the record is absent.
	if err := ini.Store.Create(ctx, rec); err != nil {
		log.Warn("call record create failed", "call_id", callID, "err", err)
	}

	dialRes, err := ini.Dialer.Dial(ctx, telephony.DialRequest{
		To:                req.To,
		VoiceURL:          fmt.Sprintf("%s/appointments/exoml/%s", ini.BaseURL, callID),
		StatusCallbackURL: fmt.Sprintf("%s/appointments/callback?callId=%s", ini.BaseURL, callID),
	})
	if err != nil {
		if slotAcquired {
			if relErr := ini.Slots.Release(ctx, req.UserID, callID); relErr != nil {
				log.Warn("call slot release failed", "user_id", req.UserID, "err", relErr)
			}
		}
		return ini.fallback(ctx, callID, req, err)
	}

	// The call is already placed; losing this bookkeeping write is logged,
	// not surfaced.
	if err := ini.Store.Update(ctx, callID, CallUpdate{
		Status:         statusPtr(StatusCalling),
		ProviderCallID: strPtr(dialRes.ProviderCallID),
	}); err != nil {
		log.Warn("calling transition write failed", "call_id", callID, "err", err)
	}

	return InitiateResult{CallID: callID, Status: StatusCalling, Via: ViaCall}, nil
}

// fallback converts a provider failure into an SMS attempt when the request
// allows it; otherwise the failure propagates.
func (ini *Initiator) fallback(ctx context.Context, callID string, req InitiateRequest, dialErr error) (InitiateResult, error) {
	log := logger.From(ctx)

	if !req.AllowSMSFallback || ini.SMS == nil {
		return InitiateResult{}, fmt.Errorf("calls: call initiation failed: %w", dialErr)
	}

	log.Warn("call initiation failed, falling back to sms", "call_id", callID, "err", dialErr)
	if err := ini.SMS.Send(ctx, req.To, req.FallbackMessage); err != nil {
		log.Error("sms fallback send failed", "call_id", callID, "err", err)
	}

	// No call will ever advance this record, so finalize it; the response
	// still reports the attempt as initiated via sms.
	if err := ini.Store.Update(ctx, callID, CallUpdate{
		Status:         statusPtr(StatusFailed),
		Result:         resultPtr(ResultFailed),
		ProviderStatus: strPtr("sms-fallback"),
	}); err != nil {
		log.Warn("sms fallback finalize write failed", "call_id", callID, "err", err)
	}

	return InitiateResult{CallID: callID, Status: StatusFailed, Via: ViaSMS}, nil
}
