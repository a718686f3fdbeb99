package jwt

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	Init("test-signing-key")
	defer Init("")

	token, err := GenerateToken(42, "dev@example.com", "dev")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.Email != "dev@example.com" || claims.Username != "dev" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
