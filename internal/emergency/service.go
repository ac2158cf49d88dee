package emergency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carecall-backend/internal/calls"
	"carecall-backend/pkg/logger"
	"carecall-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Service fans an emergency out to the user's contacts: one independent call
// attempt per contact, SMS when the voice channel is unavailable. There is
// no shared lock across the fan-out and no rollback; maximum delivery wins
// over consistency of the attempt set.
type Service struct {
	Events    Store
	Initiator *calls.Initiator
	SMS       SMSSender

	// Redis makes cancellation notices one-shot; nil skips the guard.
	Redis *redis.Client

	NewID func() string
	Now   func() time.Time
}

// SMSSender mirrors telephony.SMSSender; declared locally so the package
// depends on the capability, not the adapter.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

type TriggerRequest struct {
	UserID       string    `json:"userId"`
	PatientName  string    `json:"patientName"`
	PatientPhone string    `json:"patientPhone"`
	Symptoms     string    `json:"symptoms"`
	Location     Location  `json:"location"`
	Contacts     []Contact `json:"contacts"`
}

type Attempt struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	CallID string `json:"callId,omitempty"`
	Via    string `json:"via"`
}

type TriggerResult struct {
	EmergencyID    string     `json:"emergencyId"`
	Status         string     `json:"status"`
	CallsInitiated int        `json:"callsInitiated"`
	Attempts       []Attempt  `json:"attempts"`
	Helplines      []Helpline `json:"helplines"`
}

func (s *Service) Trigger(ctx context.Context, req TriggerRequest) (TriggerResult, error) {
	log := logger.From(ctx)

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	symptoms := req.Symptoms
	if symptoms == "" {
		symptoms = "Emergency SOS"
	}
	locationText := req.Location.Address
	if locationText == "" {
		locationText = "Unknown location"
	}
	locationJSON, _ := json.Marshal(req.Location)

	eventID := newID()
	event := Event{
		EmergencyID:  eventID,
		UserID:       req.UserID,
		Symptoms:     symptoms,
		LocationText: locationText,
		LocationJSON: string(locationJSON),
		Status:       StatusActive,
		CreatedAt:    now().UTC(),
	}
	// Best-effort: losing the event row must not stop the alert fan-out.
	if err := s.Events.Create(ctx, event); err != nil {
		log.Warn("emergency event create failed", "emergency_id", eventID, "err", err)
	}

	alert := alertMessage(symptoms, locationText, req.Location)

	attempts := make([]Attempt, 0, len(req.Contacts))
	for _, contact := range req.Contacts {
		if contact.Phone == "" {
			continue
		}
		res, err := s.Initiator.Initiate(ctx, calls.InitiateRequest{
			UserID:           req.UserID,
			To:               contact.Phone,
			Type:             calls.TypeEmergency,
			AllowSMSFallback: true,
			FallbackMessage:  alert,
			PatientName:      req.PatientName,
			PatientPhone:     req.PatientPhone,
			Symptoms:         symptoms,
			LocationText:     locationText,
			LocationJSON:     string(locationJSON),
			EmergencyID:      eventID,
		})
		if err != nil {
			// One contact's failure never affects the others.
			log.Error("emergency contact attempt failed", "emergency_id", eventID, "phone", contact.Phone, "err", err)
			continue
		}
		attempts = append(attempts, Attempt{
			Name:   contact.Name,
			Phone:  contact.Phone,
			CallID: res.CallID,
			Via:    res.Via,
		})
	}

	return TriggerResult{
		EmergencyID:    eventID,
		Status:         string(StatusActive),
		CallsInitiated: len(attempts),
		Attempts:       attempts,
		Helplines:      Helplines(),
	}, nil
}

type CancelRequest struct {
	EmergencyID string    `json:"emergencyId"`
	UserID      string    `json:"userId"`
	Contacts    []Contact `json:"contacts"`
}

type CancelResult struct {
	EmergencyID string    `json:"emergencyId"`
	Status      string    `json:"status"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// Cancel marks the event cancelled and tells the contacts to stand down.
// In-flight provider calls cannot be stopped; cancellation only suppresses
// future actions, and the notice itself is sent at most once per event.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (CancelResult, error) {
	log := logger.From(ctx)

	now := s.Now
	if now == nil {
		now = time.Now
	}
	at := now().UTC()

	if err := s.Events.Cancel(ctx, req.EmergencyID, at); err != nil {
		return CancelResult{}, err
	}

	notify := true
	if s.Redis != nil {
		won, err := utils.MarkOnce(ctx, s.Redis, "emergency:cancelled:"+req.EmergencyID, 24*time.Hour)
		if err != nil {
			log.Warn("cancel idempotency mark failed", "emergency_id", req.EmergencyID, "err", err)
		} else {
			notify = won
		}
	}

	if notify && s.SMS != nil {
		for _, contact := range req.Contacts {
			if contact.Phone == "" {
				continue
			}
			if err := s.SMS.Send(ctx, contact.Phone, cancelMessage()); err != nil {
				log.Warn("cancellation sms failed", "emergency_id", req.EmergencyID, "phone", contact.Phone, "err", err)
			}
		}
	}

	return CancelResult{
		EmergencyID: req.EmergencyID,
		Status:      string(StatusCancelled),
		CancelledAt: at,
	}, nil
}

func alertMessage(symptoms, locationText string, loc Location) string {
	var b strings.Builder
	b.WriteString("EMERGENCY ALERT - CareCall\n\n")
	b.WriteString("Someone needs immediate help!\n")
	fmt.Fprintf(&b, "Symptoms: %s\n", symptoms)
	fmt.Fprintf(&b, "Location: %s\n", locationText)
	if loc.Lat != "" && loc.Lng != "" {
		fmt.Fprintf(&b, "Maps: https://maps.google.com/?q=%s,%s\n", loc.Lat, loc.Lng)
	}
	b.WriteString("\nPlease respond immediately or call 112.")
	return b.String()
}

func cancelMessage() string {
	return "CareCall: The emergency alert has been cancelled. The user is safe. No action needed."
}
