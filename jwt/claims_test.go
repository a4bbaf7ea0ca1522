package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// fakeToken assembles an unsigned JWT-shaped string from the given claims.
// The signature segment is garbage on purpose; Peek must not care.
func fakeToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestPeekReadsStandardClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := fakeToken(t, map[string]interface{}{
		"sub":  "user-42",
		"role": "admin",
		"exp":  exp,
	})

	claims, err := Peek(token)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("UserID = %q, want user-42", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Fatalf("Role = %q, want admin", claims.Role)
	}
	if claims.ExpiresAt.Unix() != exp {
		t.Fatalf("ExpiresAt = %v, want unix %d", claims.ExpiresAt, exp)
	}
}

func TestPeekFallbackClaimNames(t *testing.T) {
	claims, err := Peek(fakeToken(t, map[string]interface{}{
		"userId":   "user-7",
		"userRole": "editor",
	}))
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if claims.UserID != "user-7" {
		t.Fatalf("UserID = %q, want user-7", claims.UserID)
	}
	if claims.Role != "editor" {
		t.Fatalf("Role = %q, want editor", claims.Role)
	}
}

func TestPeekPrefersSubOverAlternates(t *testing.T) {
	claims, err := Peek(fakeToken(t, map[string]interface{}{
		"sub": "canonical",
		"uid": "legacy",
	}))
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if claims.UserID != "canonical" {
		t.Fatalf("UserID = %q, want canonical", claims.UserID)
	}
}

func TestPeekMissingClaimsAreZero(t *testing.T) {
	claims, err := Peek(fakeToken(t, map[string]interface{}{"iss": "api"}))
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if claims.UserID != "" || claims.Role != "" || !claims.ExpiresAt.IsZero() {
		t.Fatalf("expected zero claims, got %+v", claims)
	}
}

func TestPeekRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "opaque-token", "a.b", "%%%.%%%.%%%"} {
		if _, err := Peek(input); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Peek(%q) error = %v, want ErrMalformedToken", input, err)
		}
	}
}
