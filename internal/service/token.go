package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes the claims carried by a session token. Fields are
// zero when the token is not a JWT or lacks the claim.
type TokenInfo struct {
	IsJWT     bool      `json:"is_jwt"`
	Subject   string    `json:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// DescribeToken reads the registered claims of a JWT without verifying its
// signature. The result is for display only; tokens are never rejected on
// the strength of it.
func DescribeToken(token string) TokenInfo {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{
		IsJWT:   true,
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// Expired reports whether the token carries an expiry that has passed.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
