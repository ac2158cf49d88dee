package utils

import (
	"context"
	"testing"
	"time"
)

func TestCallSlotScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if callSlotAcquireScript == nil || callSlotReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestCallSlotKey(t *testing.T) {
	if got := callSlotKey("u1"); got != "calls:active:u1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCallSlotDefaults(t *testing.T) {
	s := &RedisCallSlots{}
	if s.limit() != 3 {
		t.Fatalf("expected default limit 3, got %d", s.limit())
	}
	if s.ttl() != 3*time.Minute {
		t.Fatalf("expected default ttl 3m, got %v", s.ttl())
	}
	s = &RedisCallSlots{Limit: 5, TTL: time.Minute}
	if s.limit() != 5 || s.ttl() != time.Minute {
		t.Fatalf("expected overrides kept, got %d %v", s.limit(), s.ttl())
	}
}

func TestCallSlotRequiresClientAndIDs(t *testing.T) {
	s := &RedisCallSlots{}
	if _, err := s.Acquire(context.Background(), "u1", "call-1"); err == nil {
		t.Fatalf("expected error without client")
	}
	if err := s.Release(context.Background(), "", "call-1"); err == nil {
		t.Fatalf("expected error without user id")
	}
	if err := s.Release(context.Background(), "u1", ""); err == nil {
		t.Fatalf("expected error without call id")
	}
}
