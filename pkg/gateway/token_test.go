package gateway

import (
	"strings"
	"testing"
	"time"
)

func TestToken_RoundTrip(t *testing.T) {
	tok := SignToken("secret", time.Now().Add(time.Hour))
	if err := VerifyToken("secret", tok); err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
}

func TestToken_Expired(t *testing.T) {
	tok := SignToken("secret", time.Now().Add(-time.Minute))
	if err := VerifyToken("secret", tok); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestToken_WrongSecret(t *testing.T) {
	tok := SignToken("secret", time.Now().Add(time.Hour))
	if err := VerifyToken("other", tok); err == nil {
		t.Fatal("token signed with a different secret must not verify")
	}
}

func TestToken_Tampered(t *testing.T) {
	tok := SignToken("secret", time.Now().Add(time.Minute))
	exp, mac, _ := strings.Cut(tok, ".")

	// Push the expiry forward without re-signing.
	forged := "9" + exp + "." + mac
	if err := VerifyToken("secret", forged); err == nil {
		t.Fatal("tampered expiry must not verify")
	}
	if err := VerifyToken("secret", "garbage"); err == nil {
		t.Fatal("malformed token must not verify")
	}
}
