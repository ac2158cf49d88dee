package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Exotel outbound-call adapter.
//
// Rules:
// - No provider API calls outside telephony adapters.
// - Keep request/response types provider-agnostic at the Dialer boundary.

const (
	defaultExotelAPIBase = "https://api.exotel.com"

	// Ring timeout and maximum call duration, in seconds. Exotel enforces
	// both server-side; they bound how long one outbound attempt can hold
	// a line.
	dialRingTimeoutSec = 30
	dialTimeLimitSec   = 90
	defaultDialTimeout = 15 * time.Second
)

// ErrNotConfigured is returned when provider credentials are absent.
// Callers decide per flow whether this is fatal (booking) or a fallback
// trigger (emergency).
var ErrNotConfigured = errors.New("telephony: call provider not configured")

// Dialer places an outbound call that plays the voice script at VoiceURL when
// answered and delivers a terminal status to StatusCallbackURL when the call
// ends.
type Dialer interface {
	Dial(ctx context.Context, req DialRequest) (DialResult, error)
}

type DialRequest struct {
	// To is the destination number, passed through as supplied by the
	// caller. Number format validation is the caller's concern.
	To string

	VoiceURL          string
	StatusCallbackURL string
}

type DialResult struct {
	// ProviderCallID is Exotel's Sid for the created call.
	ProviderCallID string
}

// ExotelDialer submits calls to Exotel's connect endpoint.
type ExotelDialer struct {
	AccountSID string
	APIKey     string
	APIToken   string

	// CallerID is the ExoPhone shown to the dialed party.
	CallerID string

	// APIBase overrides the Exotel endpoint, mainly for tests.
	APIBase string

	// HTTPClient defaults to a 15s-timeout client.
	HTTPClient *http.Client
}

func (d *ExotelDialer) configured() bool {
	return d.AccountSID != "" && d.APIKey != "" && d.APIToken != "" && d.CallerID != ""
}

func (d *ExotelDialer) client() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: defaultDialTimeout}
}

func (d *ExotelDialer) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	if !d.configured() {
		return DialResult{}, ErrNotConfigured
	}
	if strings.TrimSpace(req.To) == "" {
		return DialResult{}, errors.New("telephony: destination number required")
	}

	// Exotel's connect API is form-encoded, not JSON. "From" is the number
	// Exotel dials out to; the ExoPhone rides in CallerId.
	form := url.Values{}
	form.Set("From", req.To)
	form.Set("CallerId", d.CallerID)
	form.Set("Url", req.VoiceURL)
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("TimeLimit", strconv.Itoa(dialTimeLimitSec))
	form.Set("TimeOut", strconv.Itoa(dialRingTimeoutSec))

	base := d.APIBase
	if base == "" {
		base = defaultExotelAPIBase
	}
	endpoint := fmt.Sprintf("%s/v1/Accounts/%s/Calls/connect", strings.TrimRight(base, "/"), d.AccountSID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return DialResult{}, fmt.Errorf("telephony: build connect request: %w", err)
	}
	httpReq.SetBasicAuth(d.APIKey, d.APIToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client().Do(httpReq)
	if err != nil {
		return DialResult{}, fmt.Errorf("telephony: exotel connect: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return DialResult{}, fmt.Errorf("telephony: read exotel response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DialResult{}, fmt.Errorf("telephony: exotel connect returned %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	// Response JSON nests the call identifier under Call.Sid.
	var parsed struct {
		Call struct {
			Sid string `json:"Sid"`
		} `json:"Call"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return DialResult{}, fmt.Errorf("telephony: decode exotel response: %w", err)
	}
	return DialResult{ProviderCallID: parsed.Call.Sid}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
