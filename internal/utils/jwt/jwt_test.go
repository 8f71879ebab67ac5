package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret-at-least-16"

func TestAuthenticate_RoundTrip(t *testing.T) {
	v := NewVerifier(secret, "ingest")

	token, err := v.GenerateToken("user-42", "tenant-a", time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	userID, tenantID, err := v.Authenticate(token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if userID != "user-42" || tenantID != "tenant-a" {
		t.Errorf("Got %q/%q", userID, tenantID)
	}
}

func TestAuthenticate_LegacyUserIDClaim(t *testing.T) {
	claims := jwt.MapClaims{"user_id": "user-7", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	userID, _, err := NewVerifier(secret, "").Authenticate(token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if userID != "user-7" {
		t.Errorf("Expected user-7, got %q", userID)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	v := NewVerifier(secret, "ingest")

	expired, _ := v.GenerateToken("user-42", "", -time.Minute)
	otherKey, _ := NewVerifier("a-different-secret-key", "ingest").GenerateToken("user-42", "", time.Hour)
	otherIssuer, _ := NewVerifier(secret, "someone-else").GenerateToken("user-42", "", time.Hour)
	noSubject, _ := v.GenerateToken("", "", time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-42", "iss": "ingest"}).SignedString([]byte(secret))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"wrong issuer", otherIssuer},
		{"no subject", noSubject},
		{"no expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := v.Authenticate(tt.token); err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestAuthenticate_MissingSubjectError(t *testing.T) {
	v := NewVerifier(secret, "")
	token, _ := v.GenerateToken("", "", time.Hour)

	if _, _, err := v.Authenticate(token); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("Expected ErrMissingSubject, got %v", err)
	}
}
