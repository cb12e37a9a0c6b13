package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"decision-hub/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTClaims represents the claims in a JWT token.
// UserID is the opaque identity the decision rules work with.
type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service validates identity tokens issued by the identity provider.
// A PEM-encoded EC private key as secret selects ES256, any other secret HS256.
type Service struct {
	privateKey    *ecdsa.PrivateKey
	publicKey     *ecdsa.PublicKey
	hmacSecret    []byte
	jwtExpiration time.Duration
}

// NewService creates a new authentication service
func NewService(cfg *config.JWTConfig) *Service {
	s := &Service{jwtExpiration: cfg.Expiration}
	if privateKey := parseECKey(cfg.Secret); privateKey != nil {
		s.privateKey = privateKey
		s.publicKey = &privateKey.PublicKey
	} else {
		s.hmacSecret = []byte(cfg.Secret)
	}
	return s
}

// GenerateToken signs a token for userID. The service never issues tokens to clients;
// this exists for local tooling and tests.
func (s *Service) GenerateToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	var tokenString string
	var err error
	if s.privateKey != nil {
		tokenString, err = jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.privateKey)
	} else {
		tokenString, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmacSecret)
	}
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) keyFunc(token *jwt.Token) (any, error) {
	if s.publicKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	}

	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.hmacSecret, nil
}

// parseECKey returns the EC private key encoded in secret, or nil
func parseECKey(secret string) *ecdsa.PrivateKey {
	block, _ := pem.Decode([]byte(secret))
	if block == nil {
		return nil
	}
	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil
	}
	return privateKey
}
