package security

import (
	"errors"
	"testing"
	"time"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	token, errSign := GenerateAdminToken("secret", 7, "editor", time.Hour)
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	claims, errParse := ParseAdminToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.AdminID != 7 || claims.Username != "editor" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, errParse = ParseAdminToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", errParse)
	}
}

func TestAdminTokenExpired(t *testing.T) {
	token, errSign := GenerateAdminToken("secret", 7, "editor", -time.Minute)
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	if _, errParse := ParseAdminToken("secret", token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestGenerateAdminTokenRequiresSecret(t *testing.T) {
	if _, errSign := GenerateAdminToken("", 1, "x", time.Hour); errSign == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestHashPassword(t *testing.T) {
	if _, errHash := HashPassword("short"); !errors.Is(errHash, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", errHash)
	}
	hash, errHash := HashPassword("correct horse")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatalf("expected wrong password to fail")
	}
}
