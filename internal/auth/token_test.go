package auth

import (
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	claims := Claims{
		Sub:   "user-1",
		Name:  "Jordan",
		Email: "jordan@example.com",
		Role:  "member",
		Exp:   time.Now().Add(time.Hour).Unix(),
	}

	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed != claims {
		t.Errorf("claims mismatch: issued %+v, parsed %+v", claims, parsed)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, _ := IssueToken(secret, Claims{Sub: "user-1", Exp: time.Now().Add(time.Hour).Unix()})

	if _, err := ParseToken([]byte("other-secret"), token); err != ErrInvalidToken {
		t.Errorf("wrong secret should fail, got %v", err)
	}
	if _, err := ParseToken(secret, token+"x"); err != ErrInvalidToken {
		t.Errorf("mangled signature should fail, got %v", err)
	}
	if _, err := ParseToken(secret, "not-a-token"); err != ErrInvalidToken {
		t.Errorf("malformed token should fail, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _ := IssueToken(secret, Claims{Sub: "user-1", Exp: time.Now().Add(-time.Minute).Unix()})

	if _, err := ParseToken(secret, token); err != ErrExpiredToken {
		t.Errorf("expired token should fail, got %v", err)
	}
}

func TestParseTokenRequiresSubject(t *testing.T) {
	token, _ := IssueToken(secret, Claims{Exp: time.Now().Add(time.Hour).Unix()})

	if _, err := ParseToken(secret, token); err != ErrInvalidToken {
		t.Errorf("token without subject should fail, got %v", err)
	}
}
