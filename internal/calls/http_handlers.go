package calls

import (
	"errors"
	"net/http"

	"carecall-backend/internal/telephony"
	"carecall-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the call-orchestration HTTP handlers for dependency
// injection. Keep these thin: parse/validate input, call internal services,
// return JSON. The exception is the voice-script endpoint, which must answer
// with script markup because the provider cannot interpret anything else.
type Handlers struct {
	Store      Store
	Initiator  *Initiator
	Reconciler *Reconciler
}

type bookRequest struct {
	UserID        string `json:"userId"`
	DoctorName    string `json:"doctorName"`
	ClinicPhone   string `json:"clinicPhone"`
	PreferredTime string `json:"preferredTime"`
	PatientName   string `json:"patientName"`
	PatientPhone  string `json:"patientPhone"`
	Symptoms      string `json:"symptoms"`
}

// Book creates a call record and dials the clinic. A booking with no call
// cannot silently succeed, so provider failures surface as server errors.
func (h Handlers) Book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ClinicPhone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "clinicPhone is required"})
		return
	}
	if req.UserID == "" {
		req.UserID = "demo-user"
	}
	if req.DoctorName == "" {
		req.DoctorName = "Doctor"
	}
	if req.PatientName == "" {
		req.PatientName = "Patient"
	}
	if req.PreferredTime == "" {
		req.PreferredTime = "at their earliest convenience"
	}

	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	res, err := h.Initiator.Initiate(ctx, InitiateRequest{
		UserID:        req.UserID,
		To:            req.ClinicPhone,
		Type:          TypeAppointment,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		DoctorName:    req.DoctorName,
		ClinicPhone:   req.ClinicPhone,
		PreferredTime: req.PreferredTime,
		Symptoms:      req.Symptoms,
	})
	if err != nil {
		if errors.Is(err, ErrCallCapExceeded) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many calls in progress, try again shortly"})
			return
		}
		logger.FromGin(c).Error("booking call failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not place the booking call"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"callId":  res.CallID,
		"status":  res.Status,
		"message": "AI agent is calling " + req.DoctorName + "'s clinic on your behalf",
	})
}

// Status returns the current state of one call attempt.
func (h Handlers) Status(c *gin.Context) {
	callID := c.Param("callId")
	rec, err := h.Store.Get(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		logger.FromGin(c).Error("call status read failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}

	// Before a terminal status the result is JSON null, not an empty string.
	var result *CallResult
	if rec.Result != "" {
		result = &rec.Result
	}

	c.JSON(http.StatusOK, gin.H{
		"callId":        rec.CallID,
		"status":        rec.Status,
		"result":        result,
		"doctorName":    rec.DoctorName,
		"preferredTime": rec.PreferredTime,
		"createdAt":     rec.CreatedAt,
	})
}

// ExoML serves the voice script the provider fetches when the called party
// answers. Every path out of here is HTTP 200 with valid markup; the one
// consumer is the provider's script interpreter.
func (h Handlers) ExoML(c *gin.Context) {
	log := logger.FromGin(c)
	callID := c.Param("callId")

	if callID == "" {
		h.writeScript(c, telephony.ApologyScript("the call details are missing"))
		return
	}

	rec, err := h.Store.Get(c.Request.Context(), callID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("voice script record read failed", "call_id", callID, "err", err)
		}
		h.writeScript(c, telephony.ApologyScript("we could not find your call details"))
		return
	}

	var message string
	switch rec.Type {
	case TypeEmergency:
		message = telephony.EmergencyScript{
			PatientName:  rec.PatientName,
			PatientPhone: rec.PatientPhone,
			LocationText: rec.LocationText,
		}.Message()
	default:
		message = telephony.AppointmentScript{
			PatientName:   rec.PatientName,
			PatientPhone:  rec.PatientPhone,
			DoctorName:    rec.DoctorName,
			PreferredTime: rec.PreferredTime,
			Symptoms:      rec.Symptoms,
		}.Message()
	}

	// The recipient picked up; mark the call live. Best-effort, since the
	// call is in progress regardless of bookkeeping success, and guarded so
	// an unusually fast terminal callback is never dragged backward.
	if next, ok := TryAdvance(rec.Status, StatusInProgress); ok && next != rec.Status {
		if err := h.Store.Update(c.Request.Context(), callID, CallUpdate{Status: statusPtr(next)}); err != nil {
			log.Warn("in_progress transition write failed", "call_id", callID, "err", err)
		}
	}

	h.writeScript(c, telephony.SayDocument(telephony.Sanitize(message)))
}

func (h Handlers) writeScript(c *gin.Context, doc string) {
	c.Header("Content-Type", "text/xml; charset=utf-8")
	c.String(http.StatusOK, doc)
}

// Callback is the provider webhook delivered when the call ends. Internally
// recoverable errors still acknowledge success, because the provider cannot
// do anything smarter on retry. A missing callId means the webhook URL is
// misconfigured and is surfaced as a client error.
func (h Handlers) Callback(c *gin.Context) {
	log := logger.FromGin(c)

	callID := c.Query("callId")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callId missing"})
		return
	}

	form, err := telephony.ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("callback form parse failed", "call_id", callID, "err", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx := logger.With(c.Request.Context(), log)
	if err := h.Reconciler.Reconcile(ctx, callID, form); err != nil {
		log.Error("callback reconcile write failed", "call_id", callID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
