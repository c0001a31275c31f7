package auth

import (
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, "access")
	}
	if claims.TokenID != "" {
		t.Errorf("access token should carry no token id, got %q", claims.TokenID)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(testSecret, "user-1", "tid-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.TokenType != "refresh" || claims.TokenID != "tid-1" {
		t.Errorf("got type %q id %q, want refresh/tid-1", claims.TokenType, claims.TokenID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken("a-different-secret", token); err == nil {
		t.Error("expected validation to fail with the wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	for _, token := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := ValidateToken(testSecret, token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}
