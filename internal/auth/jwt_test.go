package auth

import (
	"testing"
	"time"
)

func TestAPIKeyRoundtrip(t *testing.T) {
	hash, err := HashAPIKey("super-secret-key")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	svc := NewService(DefaultConfig("jwt-secret", hash))
	if err := svc.VerifyAPIKey("super-secret-key"); err != nil {
		t.Errorf("VerifyAPIKey with correct key: %v", err)
	}
	if err := svc.VerifyAPIKey("wrong-key"); err == nil {
		t.Error("VerifyAPIKey accepted a wrong key")
	}
}

func TestVerifyAPIKeyRequiresConfiguredHash(t *testing.T) {
	svc := NewService(DefaultConfig("jwt-secret", ""))
	if err := svc.VerifyAPIKey("anything"); err == nil {
		t.Error("VerifyAPIKey accepted a key with no hash configured")
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewService(DefaultConfig("jwt-secret", ""))

	token, expiresAt, err := svc.IssueToken("dispatch-ui")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 11*time.Hour {
		t.Errorf("expiry too close: %v", remaining)
	}

	client, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if client != "dispatch-ui" {
		t.Errorf("client = %q, want dispatch-ui", client)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(DefaultConfig("secret-a", ""))
	verifier := NewService(DefaultConfig("secret-b", ""))

	token, _, err := issuer.IssueToken("dispatch-ui")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted a token signed with another secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService(DefaultConfig("jwt-secret", ""))
	svc.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }

	token, _, err := svc.IssueToken("dispatch-ui")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted an expired token")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(DefaultConfig("jwt-secret", ""))
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("ValidateToken accepted garbage")
	}
}
