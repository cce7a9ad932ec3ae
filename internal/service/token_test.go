package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestDescribeTokenJWT(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "idp",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}

	info := DescribeToken(signed)
	if !info.IsJWT {
		t.Fatal("expected IsJWT")
	}
	if info.Subject != "admin" || info.Issuer != "idp" {
		t.Errorf("claims = %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Error("token should not be expired yet")
	}
	if !info.Expired(exp.Add(time.Second)) {
		t.Error("token should be expired after exp")
	}
}

func TestDescribeTokenOpaque(t *testing.T) {
	info := DescribeToken("opaque-session-token")
	if info.IsJWT {
		t.Error("opaque token reported as JWT")
	}
	if info.Expired(time.Now()) {
		t.Error("opaque token should never read as expired")
	}
}
