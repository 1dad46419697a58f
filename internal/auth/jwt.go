package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Validate for every rejected token: bad
// signature, malformed payload, wrong algorithm, expired, missing subject.
// Collapsing the sub-reasons keeps responses from leaking which check failed.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the validated content of an access token.
type Claims struct {
	Subject string // username
	Email   string
}

// tokenClaims is the JWT payload. The subject holds the username; email is
// carried as a custom claim for the frontend's convenience.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256-signed access tokens.
//
// It holds the HMAC secret and the token lifetime, both fixed at
// construction; issuance and validation are otherwise pure functions of
// their input.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a TokenService. Secrets shorter than 16 bytes are
// rejected so a missing or placeholder JWT_SECRET fails startup instead of
// signing tokens with a guessable key. The ttl is the lifetime stamped into
// every issued token.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Issue creates and signs an access token for the given subject (username).
func (s *TokenService) Issue(subject, email string) (string, error) {
	return s.IssueWithTTL(subject, email, s.ttl)
}

// IssueWithTTL creates a token with an explicit lifetime. Used by tests to
// mint already-expired tokens.
func (s *TokenService) IssueWithTTL(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
//
// Signature, expiry, issuer, and algorithm are all checked; jwt.WithValidMethods
// pins HS256 so an attacker can't downgrade the algorithm. Any failure,
// including an empty subject, returns ErrInvalidToken and nothing else,
// never a partially populated Claims.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{Subject: c.Subject, Email: c.Email}, nil
}
