package auth

import (
	"testing"
	"time"
)

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	b := NewTokenBlacklist(16, time.Minute)

	if b.IsRevoked("tok-1") {
		t.Fatal("fresh blacklist must not contain tok-1")
	}

	b.Revoke("tok-1")

	if !b.IsRevoked("tok-1") {
		t.Fatal("tok-1 must be revoked")
	}
	if b.IsRevoked("tok-2") {
		t.Fatal("tok-2 must not be revoked")
	}
}

func TestTokenBlacklist_EntriesExpire(t *testing.T) {
	b := NewTokenBlacklist(16, 20*time.Millisecond)

	b.Revoke("tok-1")
	if !b.IsRevoked("tok-1") {
		t.Fatal("tok-1 must be revoked right after Revoke")
	}

	time.Sleep(50 * time.Millisecond)

	if b.IsRevoked("tok-1") {
		t.Fatal("tok-1 must have expired")
	}
}

func TestTokenBlacklist_BoundedGrowth(t *testing.T) {
	b := NewTokenBlacklist(2, time.Minute)

	b.Revoke("a")
	b.Revoke("b")
	b.Revoke("c") // evicts the oldest

	revoked := 0
	for _, tok := range []string{"a", "b", "c"} {
		if b.IsRevoked(tok) {
			revoked++
		}
	}
	if revoked != 2 {
		t.Fatalf("expected exactly 2 entries retained, got %d", revoked)
	}
}
