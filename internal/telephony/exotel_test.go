package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func configuredDialer(apiBase string) *ExotelDialer {
	return &ExotelDialer{
		AccountSID: "carecall1",
		APIKey:     "key",
		APIToken:   "token",
		CallerID:   "08039000000",
		APIBase:    apiBase,
	}
}

func TestDial_NotConfigured(t *testing.T) {
	d := &ExotelDialer{}
	_, err := d.Dial(context.Background(), DialRequest{To: "9876543210"})
	if err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDial_RequiresDestination(t *testing.T) {
	d := configuredDialer("")
	_, err := d.Dial(context.Background(), DialRequest{})
	if err == nil {
		t.Fatalf("expected error for empty destination")
	}
}

func TestDial_SubmitsFormAndParsesSid(t *testing.T) {
	var gotForm map[string]string
	var gotPath, gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostFormValue(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Call":{"Sid":"CA42","Status":"in-progress"}}`))
	}))
	defer srv.Close()

	d := configuredDialer(srv.URL)
	res, err := d.Dial(context.Background(), DialRequest{
		To:                "9876543210",
		VoiceURL:          "https://api.example.com/appointments/exoml/abc",
		StatusCallbackURL: "https://api.example.com/appointments/callback?callId=abc",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ProviderCallID != "CA42" {
		t.Fatalf("expected provider call id CA42, got %q", res.ProviderCallID)
	}

	if gotPath != "/v1/Accounts/carecall1/Calls/connect" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotUser != "key" || gotPass != "token" {
		t.Fatalf("unexpected basic auth %q %q", gotUser, gotPass)
	}
	if gotForm["From"] != "9876543210" {
		t.Fatalf("expected From to carry the destination, got %q", gotForm["From"])
	}
	if gotForm["CallerId"] != "08039000000" {
		t.Fatalf("unexpected CallerId %q", gotForm["CallerId"])
	}
	if gotForm["Url"] == "" || gotForm["StatusCallback"] == "" {
		t.Fatalf("expected voice and callback urls, got %v", gotForm)
	}
	if gotForm["TimeLimit"] != "90" || gotForm["TimeOut"] != "30" {
		t.Fatalf("unexpected limits: %v", gotForm)
	}
}

func TestDial_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"RestException":{"Message":"insufficient balance"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	d := configuredDialer(srv.URL)
	_, err := d.Dial(context.Background(), DialRequest{To: "9876543210"})
	if err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}
