package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the token_type claim. A refresh token can never be
// used as an access token or vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenPair is the credential pair issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims are the JWT claims for both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
}

// TokenManager issues and verifies stateless HS256 token pairs. There is no
// server-side session or revocation list: a correctly signed, unexpired
// access token is authentication. The secret and lifetimes come from the
// configuration at construction time and are never read from globals.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair returns a fresh access/refresh pair bound to the user.
func (m *TokenManager) IssuePair(userID uint) (TokenPair, error) {
	access, err := m.issue(userID, tokenTypeAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.issue(userID, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a standalone access token, used by the refresh endpoint.
func (m *TokenManager) IssueAccess(userID uint) (string, error) {
	return m.issue(userID, tokenTypeAccess, m.accessTTL)
}

func (m *TokenManager) issue(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAccess validates an access token and returns the subject's user ID.
func (m *TokenManager) ParseAccess(tokenStr string) (uint, error) {
	return m.parse(tokenStr, tokenTypeAccess)
}

// ParseRefresh validates a refresh token and returns the subject's user ID.
func (m *TokenManager) ParseRefresh(tokenStr string) (uint, error) {
	return m.parse(tokenStr, tokenTypeRefresh)
}

// ParseAny validates either kind, for the token verify endpoint.
func (m *TokenManager) ParseAny(tokenStr string) (uint, error) {
	return m.parse(tokenStr, "")
}

func (m *TokenManager) parse(tokenStr, wantType string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}
	if wantType != "" && claims.TokenType != wantType {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
