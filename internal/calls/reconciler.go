package calls

import (
	"context"
	"strconv"

	"carecall-backend/internal/telephony"
	"carecall-backend/pkg/logger"
)

// Reconciler maps the provider's terminal status vocabulary onto the
// system's own (status, result) pair and writes the final record state.
//
// The write is a blind overwrite of the terminal fields, not a
// read-modify-write: duplicate webhook deliveries for the same call id
// converge to the same final values (last-terminal-wins).

// terminalStatusMap is the fixed provider-to-system mapping. Anything
// unrecognized falls back to (failed, failed): an unknown terminal state
// must never be treated as success.
var terminalStatusMap = map[string]struct {
	status CallStatus
	result CallResult
}{
	"completed": {StatusConfirmed, ResultConfirmed},
	"busy":      {StatusFailed, ResultFailed},
	"failed":    {StatusFailed, ResultFailed},
	"no-answer": {StatusFailed, ResultFailed},
	"canceled":  {StatusFailed, ResultFailed},
}

// MapTerminalStatus resolves a lower-cased provider status to the system
// vocabulary.
func MapTerminalStatus(providerStatus string) (CallStatus, CallResult) {
	if m, ok := terminalStatusMap[providerStatus]; ok {
		return m.status, m.result
	}
	return StatusFailed, ResultFailed
}

type Reconciler struct {
	Store Store

	// Slots releases the per-user call slot on finalization; nil skips it.
	Slots SlotLimiter
}

// Reconcile applies the provider's terminal callback to the record. Store
// failures are returned so the handler can log them, but they are not
// surfaced to the provider, since a retry would not succeed differently.
func (r *Reconciler) Reconcile(ctx context.Context, callID string, f telephony.StatusCallbackForm) error {
	log := logger.From(ctx)

	status, result := MapTerminalStatus(f.Status)

	// The metric matters less than the outcome: an unparseable duration is
	// stored as zero rather than rejecting the callback.
	duration, err := strconv.Atoi(f.Duration)
	if err != nil || duration < 0 {
		duration = 0
	}

	log.Info("provider callback",
		"call_id", callID,
		"provider_status", f.Status,
		"provider_call_id", f.CallSid,
		"duration_s", duration,
		"status", status,
	)

	r.releaseSlot(ctx, callID)

	return r.Store.Update(ctx, callID, CallUpdate{
		Status:          statusPtr(status),
		Result:          resultPtr(result),
		ProviderStatus:  strPtr(f.Status),
		DurationSeconds: intPtr(duration),
	})
}

// releaseSlot frees the caller's concurrency slot exactly once per call: a
// record that is already terminal was finalized by an earlier delivery (or by
// the sms fallback, which never held a slot), so its release already
// happened. The limiter's per-call-id release is itself a no-op for calls
// that never acquired.
func (r *Reconciler) releaseSlot(ctx context.Context, callID string) {
	if r.Slots == nil {
		return
	}
	rec, err := r.Store.Get(ctx, callID)
	if err != nil || rec.UserID == "" || rec.Type != TypeAppointment {
		return
	}
	if rec.Status.Terminal() {
		return
	}
	if err := r.Slots.Release(ctx, rec.UserID, callID); err != nil {
		logger.From(ctx).Warn("call slot release failed", "user_id", rec.UserID, "err", err)
	}
}
