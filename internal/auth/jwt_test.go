package auth

import (
	"errors"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed secret and a
// 15-minute TTL so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", "userd", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", "userd", 15*time.Minute)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_NonPositiveTTL(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars", "userd", 0)
	if err == nil {
		t.Fatal("NewTokenService() should reject a zero TTL")
	}
}

func TestNewTokenService_Valid(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars", "userd", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error: %v", err)
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssue_ReturnsWellFormedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue("octocat", "octocat@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Error("Issue() returned empty token")
	}

	// A JWT has 3 dot-separated segments.
	dots := 0
	for _, c := range token {
		if c == '.' {
			dots++
		}
	}
	if dots != 2 {
		t.Errorf("Issue() token doesn't look like a JWT (expected 2 dots, got %d)", dots)
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue("octocat", "octocat@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Subject != "octocat" {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, "octocat")
	}
	if claims.Email != "octocat@example.com" {
		t.Errorf("claims.Email = %q, want %q", claims.Email, "octocat@example.com")
	}
}

func TestValidate_RoundTripWithoutEmail(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Issue("octocat", "")

	claims, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Email != "" {
		t.Errorf("claims.Email = %q, want empty", claims.Email)
	}
}

func TestValidate_AllFailuresAreErrInvalidToken(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := ts.IssueWithTTL("octocat", "", -1*time.Second)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	otherSecret, _ := NewTokenService("another-secret-32-chars-long!!!!", "userd", 15*time.Minute)
	foreign, _ := otherSecret.Issue("octocat", "")

	otherIssuer, _ := NewTokenService("test-secret-at-least-16-chars!!", "someone-else", 15*time.Minute)
	wrongIssuer, _ := otherIssuer.Issue("octocat", "")

	missingSubject, _ := ts.Issue("", "octocat@example.com")

	valid, _ := ts.Issue("octocat", "")
	tampered := valid[:len(valid)-3] + "xxx"

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"garbage", "not.a.jwt"},
		{"tampered signature", tampered},
		{"expired", expired},
		{"wrong secret", foreign},
		{"wrong issuer", wrongIssuer},
		{"missing subject", missingSubject},
	}

	// Every rejection must be the same sentinel so callers can't tell the
	// failure reasons apart.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Validate(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
			if claims != nil {
				t.Errorf("Validate() claims = %+v, want nil", claims)
			}
		})
	}
}
