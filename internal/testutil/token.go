// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token returns an HS256 token expiring at exp.
func Token(exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "tester",
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

// ValidToken expires in an hour.
func ValidToken() string {
	return Token(time.Now().Add(time.Hour))
}

// ExpiredToken expired an hour ago.
func ExpiredToken() string {
	return Token(time.Now().Add(-time.Hour))
}

// TokenWithoutExpiry has no exp claim.
func TokenWithoutExpiry() string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "tester"}).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}
