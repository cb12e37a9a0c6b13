package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"decision-hub/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndValidateHMAC(t *testing.T) {
	svc := NewService(&config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", claims.Email)
	}
}

func TestGenerateAndValidateES256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	secret := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	svc := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &JWTClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if parsed.Method.Alg() != "ES256" {
		t.Errorf("Expected ES256, got %s", parsed.Method.Alg())
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, claims.UserID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewService(&config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
	other := NewService(&config.JWTConfig{Secret: "other-secret", Expiration: time.Hour})
	expired := NewService(&config.JWTConfig{Secret: "test-secret", Expiration: -time.Minute})

	foreign, _ := other.GenerateToken(uuid.New(), "")
	stale, _ := expired.GenerateToken(uuid.New(), "")
	noUser, _ := svc.GenerateToken(uuid.Nil, "")

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: stale, wantErr: ErrExpiredToken},
		{name: "missing user", token: noUser, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
