package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionIssuer is the iss claim of every session token.
const SessionIssuer = "medilinko"

var ErrNoRecordID = errors.New("session token carries no record id")

// SessionClaims identify a directory record and the role it logged in with.
// Role is the record's role, or "admin" for the configured admin account.
type SessionClaims struct {
	RecordID string `json:"rid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SessionSigner signs and verifies HS256 session tokens.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, expirationHours int64) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: time.Duration(expirationHours) * time.Hour}
}

// Sign issues a token for recordID. The record id doubles as the subject.
func (s *SessionSigner) Sign(recordID, role string) (string, error) {
	if recordID == "" {
		return "", ErrNoRecordID
	}
	now := time.Now()
	claims := &SessionClaims{
		RecordID: recordID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    SessionIssuer,
			Subject:   recordID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a token signed by Sign. Only HS256 tokens from this issuer
// with an expiry and a record id are accepted.
func (s *SessionSigner) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(SessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if claims.RecordID == "" {
		return nil, ErrNoRecordID
	}
	return claims, nil
}
