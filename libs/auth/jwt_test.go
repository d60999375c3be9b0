package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	claims := NewClaims(42, "receptionist", time.Now(), time.Hour)
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := NewHS256Verifier(secret).Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	id, err := parsed.UserID()
	if err != nil || id != 42 || parsed.Role != "receptionist" {
		t.Fatalf("claims mismatch: got %+v (id=%d err=%v)", parsed, id, err)
	}
	if _, err := NewHS256Verifier("wrong-secret").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken with wrong secret, got %v", err)
	}
}

func TestHS256RejectsExpired(t *testing.T) {
	claims := NewClaims(7, "patient", time.Now().Add(-2*time.Hour), time.Hour)
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := NewHS256Verifier("s").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestJWKSVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []jwk{{
			Kty: "RSA",
			Kid: "kid-1",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, NewClaims(9, "clinic_admin", time.Now(), time.Hour))
	tok.Header["kid"] = "kid-1"
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	parsed, err := NewJWKSClient(srv.URL, time.Minute).Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if parsed.Role != "clinic_admin" || parsed.Subject != "9" {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatalf("expected no token")
	}
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	if tok, ok := BearerToken(req); !ok || tok != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", tok)
	}
}
