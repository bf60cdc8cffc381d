// Package auth provides token issuance and validation for the HTTP API.
// Clients exchange a shared API key for a short-lived HS256 access token.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Config holds token configuration.
type Config struct {
	// Secret signs access tokens.
	Secret string
	// APIKeyHash is the bcrypt hash of the accepted API key.
	APIKeyHash string
	Issuer     string
	TokenTTL   time.Duration
}

// DefaultConfig returns sensible defaults around a secret and key hash.
func DefaultConfig(secret, apiKeyHash string) Config {
	return Config{
		Secret:     secret,
		APIKeyHash: apiKeyHash,
		Issuer:     "cargodesk",
		TokenTTL:   12 * time.Hour,
	}
}

// Claims are the token claims. Subject names the client.
type Claims struct {
	jwt.RegisteredClaims
	Client string `json:"client,omitempty"`
}

// Service issues and validates tokens.
type Service struct {
	config Config
	now    func() time.Time
}

// NewService creates an auth service.
func NewService(config Config) *Service {
	return &Service{config: config, now: time.Now}
}

// VerifyAPIKey checks a presented API key against the configured hash.
func (s *Service) VerifyAPIKey(key string) error {
	if s.config.APIKeyHash == "" {
		return fmt.Errorf("no api key configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.APIKeyHash), []byte(key)); err != nil {
		return fmt.Errorf("api key mismatch")
	}
	return nil
}

// HashAPIKey produces a bcrypt hash suitable for the config file.
func HashAPIKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(h), nil
}

// IssueToken creates a signed access token for a verified client.
func (s *Service) IssueToken(client string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   client,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Client: client,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token, returning the client name.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Client, nil
}
