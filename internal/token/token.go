// Package token issues and verifies the signed access and refresh tokens
// that gate every authenticated endpoint.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type markers embedded in the "typ" claim so a refresh token can
// never pass verification as an access token.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails verification:
// expired, malformed, badly signed, or of the wrong type. Callers must not
// distinguish these cases to the outside.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are the claims carried by an access token.
// Tier is a snapshot at issuance time; it is not re-read from the store.
type AccessClaims struct {
	Tier      string `json:"tier"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims carried by a refresh token.
type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Maker issues and verifies tokens signed with a process-wide secret.
type Maker struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewMaker creates a Maker. Lifetimes are configuration constants,
// typically 30 minutes for access and 7 days for refresh tokens.
func NewMaker(secret string, accessTTL, refreshTTL time.Duration) *Maker {
	return &Maker{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs a short-lived token carrying the subject and
// tier claims.
func (m *Maker) IssueAccessToken(userID, tier string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Tier:      tier,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueRefreshToken signs a long-lived token carrying only the subject.
func (m *Maker) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// DecodeAccess verifies signature and expiry and returns the access claims.
// Any failure, including a refresh token presented as access, yields
// ErrInvalidToken.
func (m *Maker) DecodeAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.decode(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeRefresh verifies signature and expiry and returns the refresh claims.
func (m *Maker) DecodeRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.decode(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeRefresh || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Maker) decode(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
