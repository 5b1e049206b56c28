// Package auth implements the thin authentication collaborator named in §6:
// registration, token issuance, and bearer-token validation. It produces the
// trusted caller identity the rating pipeline assumes has already been
// established (§1) before the request reaches the Ingest or Query Service.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Allliance/content-rating/internal/config"
)

// Claims is the JWT payload for both access and refresh tokens. Refresh
// tokens carry Refresh=true so ParseAccess can reject a refresh token
// presented as a bearer credential.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Refresh  bool   `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates the access/refresh token pair from
// §6's /auth/token and /auth/token/refresh endpoints.
type TokenManager struct {
	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager builds a TokenManager from SecurityConfig. A blank secret
// is a Fatal misconfiguration (§7) — signing with an empty key would make
// every token forgeable.
func NewTokenManager(cfg config.SecurityConfig) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}
	accessTTL := cfg.AccessTokenLifetime
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenLifetime
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(cfg.SecretKey), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssueAccess signs a short-lived access token for userID/username.
func (m *TokenManager) IssueAccess(userID, username string) (string, error) {
	return m.sign(Claims{UserID: userID, Username: username}, m.accessTTL)
}

// IssueRefresh signs a long-lived refresh token.
func (m *TokenManager) IssueRefresh(userID, username string) (string, error) {
	return m.sign(Claims{UserID: userID, Username: username, Refresh: true}, m.refreshTTL)
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token's signature and expiry and returns its claims,
// rejecting any signing method other than HMAC (algorithm-confusion guard).
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// ParseAccess validates tokenString and rejects it if it is a refresh token.
func (m *TokenManager) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Refresh {
		return nil, fmt.Errorf("refresh token presented as access token")
	}
	return claims, nil
}

// ParseRefresh validates tokenString and requires it to be a refresh token.
func (m *TokenManager) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.Refresh {
		return nil, fmt.Errorf("access token presented as refresh token")
	}
	return claims, nil
}
