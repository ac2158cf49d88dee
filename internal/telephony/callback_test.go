package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseStatusCallback_Post(t *testing.T) {
	body := strings.NewReader("Status=Completed&CallSid=CA9&Duration=42")
	r := httptest.NewRequest(http.MethodPost, "/appointments/callback?callId=abc", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := ParseStatusCallback(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.Status != "completed" {
		t.Fatalf("expected lower-cased status, got %q", f.Status)
	}
	if f.CallSid != "CA9" || f.Duration != "42" {
		t.Fatalf("unexpected fields: %+v", f)
	}
}

func TestParseStatusCallback_GetQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/appointments/callback?callId=abc&Status=no-answer&Duration=0", nil)

	f, err := ParseStatusCallback(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.Status != "no-answer" {
		t.Fatalf("unexpected status %q", f.Status)
	}
}
