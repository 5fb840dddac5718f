package utils

import (
	"testing"
	"time"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tok, err := GenerateJWT("user-42", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	id, err := ParseUserID(tok, "s3cret")
	if err != nil {
		t.Fatalf("ParseUserID: %v", err)
	}
	if id != "user-42" {
		t.Errorf("got %q, want user-42", id)
	}
}

func TestParseUserID_WrongSecret(t *testing.T) {
	tok, _ := GenerateJWT("user-42", "s3cret", time.Hour)
	if _, err := ParseUserID(tok, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseUserID_Expired(t *testing.T) {
	tok, _ := GenerateJWT("user-42", "s3cret", -time.Minute)
	if _, err := ParseUserID(tok, "s3cret"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestGenerateJWT_EmptySecret(t *testing.T) {
	if _, err := GenerateJWT("u", "", time.Hour); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewLogger_UnknownLevel(t *testing.T) {
	l, err := NewLogger("chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !l.Core().Enabled(0) { // info
		t.Error("expected info level to be enabled")
	}
}
