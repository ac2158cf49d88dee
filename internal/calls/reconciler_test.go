package calls

import (
	"context"
	"testing"

	"carecall-backend/internal/telephony"
)

func TestMapTerminalStatus(t *testing.T) {
	cases := []struct {
		provider string
		status   CallStatus
		result   CallResult
	}{
		{"completed", StatusConfirmed, ResultConfirmed},
		{"busy", StatusFailed, ResultFailed},
		{"failed", StatusFailed, ResultFailed},
		{"no-answer", StatusFailed, ResultFailed},
		{"canceled", StatusFailed, ResultFailed},
		// Fail-safe default: unknown terminal states are never success.
		{"queued", StatusFailed, ResultFailed},
		{"", StatusFailed, ResultFailed},
	}
	for _, tc := range cases {
		s, r := MapTerminalStatus(tc.provider)
		if s != tc.status || r != tc.result {
			t.Fatalf("%q: expected (%s,%s), got (%s,%s)", tc.provider, tc.status, tc.result, s, r)
		}
	}
}

func seedRecord(t *testing.T, store *MemoryStore) {
	t.Helper()
	err := store.Create(context.Background(), CallRecord{
		CallID: "call-1",
		UserID: "u1",
		Type:   TypeAppointment,
		Status: StatusInProgress,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestReconcile_CompletedWritesConfirmed(t *testing.T) {
	store := NewMemoryStore()
	seedRecord(t, store)
	rec := &Reconciler{Store: store}

	err := rec.Reconcile(context.Background(), "call-1", telephony.StatusCallbackForm{
		Status:   "completed",
		CallSid:  "CA1",
		Duration: "57",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := store.Get(context.Background(), "call-1")
	if got.Status != StatusConfirmed || got.Result != ResultConfirmed {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
	if got.ProviderStatus != "completed" || got.DurationSeconds != 57 {
		t.Fatalf("unexpected provider fields: %+v", got)
	}
}

func TestReconcile_NoAnswerWritesFailed(t *testing.T) {
	store := NewMemoryStore()
	seedRecord(t, store)
	rec := &Reconciler{Store: store}

	if err := rec.Reconcile(context.Background(), "call-1", telephony.StatusCallbackForm{Status: "no-answer", Duration: "0"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, _ := store.Get(context.Background(), "call-1")
	if got.Status != StatusFailed || got.Result != ResultFailed || got.DurationSeconds != 0 {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestReconcile_UnparseableDurationStoresZero(t *testing.T) {
	store := NewMemoryStore()
	seedRecord(t, store)
	rec := &Reconciler{Store: store}

	if err := rec.Reconcile(context.Background(), "call-1", telephony.StatusCallbackForm{Status: "completed", Duration: "n/a"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, _ := store.Get(context.Background(), "call-1")
	if got.DurationSeconds != 0 {
		t.Fatalf("expected duration 0, got %d", got.DurationSeconds)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	seedRecord(t, store)
	rec := &Reconciler{Store: store}

	form := telephony.StatusCallbackForm{Status: "completed", CallSid: "CA1", Duration: "30"}
	if err := rec.Reconcile(context.Background(), "call-1", form); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	first, _ := store.Get(context.Background(), "call-1")

	if err := rec.Reconcile(context.Background(), "call-1", form); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	second, _ := store.Get(context.Background(), "call-1")

	if first != second {
		t.Fatalf("duplicate delivery diverged: %+v vs %+v", first, second)
	}
}

func TestReconcile_DuplicateCallbackReleasesSlotOnce(t *testing.T) {
	store := NewMemoryStore()
	seedRecord(t, store)
	slots := &fakeSlots{}
	rec := &Reconciler{Store: store, Slots: slots}

	form := telephony.StatusCallbackForm{Status: "completed", Duration: "30"}
	if err := rec.Reconcile(context.Background(), "call-1", form); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := rec.Reconcile(context.Background(), "call-1", form); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	// Freeing the slot twice would hand the user's other in-flight calls'
	// capacity back and let the cap be exceeded.
	if len(slots.releases) != 1 {
		t.Fatalf("expected exactly one release, got %v", slots.releases)
	}
	if slots.releases[0] != "call-1" {
		t.Fatalf("expected release keyed by call id, got %q", slots.releases[0])
	}
}

func TestReconcile_NoSlotReleaseForEmergencyCalls(t *testing.T) {
	store := NewMemoryStore()
	err := store.Create(context.Background(), CallRecord{
		CallID: "call-2",
		UserID: "u1",
		Type:   TypeEmergency,
		Status: StatusInProgress,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	slots := &fakeSlots{}
	rec := &Reconciler{Store: store, Slots: slots}

	if err := rec.Reconcile(context.Background(), "call-2", telephony.StatusCallbackForm{Status: "completed"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(slots.releases) != 0 {
		t.Fatalf("emergency calls hold no slot, got releases %v", slots.releases)
	}
}

func TestReconcile_UnknownCallIDReturnsNotFound(t *testing.T) {
	rec := &Reconciler{Store: NewMemoryStore()}
	err := rec.Reconcile(context.Background(), "missing", telephony.StatusCallbackForm{Status: "completed"})
	if err == nil {
		t.Fatalf("expected error for unknown call id")
	}
}
