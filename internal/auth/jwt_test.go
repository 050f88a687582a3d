package auth

import (
	"testing"
	"time"
)

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	token, err := issuer.GenerateClientToken("client-1")
	if err != nil {
		t.Fatalf("GenerateClientToken() error = %v", err)
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ClientID != "client-1" {
		t.Errorf("ClientID = %q, want client-1", claims.ClientID)
	}
	if claims.Role != "client" {
		t.Errorf("Role = %q, want client", claims.Role)
	}
}

func TestIssuerRejectsForeignSecret(t *testing.T) {
	issuer, err := NewIssuer("secret-a", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewIssuer("secret-b", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, err := other.GenerateClientToken("client-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token signed with a different secret")
	}
}

func TestIssuerRejectsExpiredToken(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// Force issuance of already-expired tokens.
	issuer.ttl = -time.Minute

	token, err := issuer.GenerateClientToken("client-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted an expired token")
	}
}

func TestIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); err == nil {
		t.Error("NewIssuer() accepted an empty secret")
	}
}
