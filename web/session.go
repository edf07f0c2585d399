package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrUnauthenticated is returned for a missing, invalid or expired session.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionTTL is the lifetime of a session cookie.
const SessionTTL = 24 * time.Hour

// Session is the signed-in user and the credentials to access their drive.
type Session struct {
	Email string
	Token *oauth2.Token
}

// claims of the session JWT. The subject is the user's email.
type claims struct {
	AccessToken  string `json:"at,omitempty"`
	RefreshToken string `json:"rt,omitempty"`
	TokenType    string `json:"tt,omitempty"`
	TokenExpiry  int64  `json:"tx,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HMAC signed session tokens.
//
// Tokens are signed, not encrypted: they are only ever stored in an
// HttpOnly cookie of the user they belong to.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns Sessions signed with secret.
func NewSessions(secret []byte) *Sessions {
	return &Sessions{secret: secret, ttl: SessionTTL, now: time.Now}
}

// Issue returns a session token for s.
func (m *Sessions) Issue(s Session) (string, error) {
	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if t := s.Token; t != nil {
		c.AccessToken, c.RefreshToken, c.TokenType = t.AccessToken, t.RefreshToken, t.TokenType
		if !t.Expiry.IsZero() {
			c.TokenExpiry = t.Expiry.Unix()
		}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("cannot sign session: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its session.
func (m *Sessions) Parse(token string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return Session{}, fmt.Errorf("%w: no subject", ErrUnauthenticated)
	}
	s := Session{Email: c.Subject}
	if c.AccessToken != "" || c.RefreshToken != "" {
		s.Token = &oauth2.Token{AccessToken: c.AccessToken, RefreshToken: c.RefreshToken, TokenType: c.TokenType}
		if c.TokenExpiry != 0 {
			s.Token.Expiry = time.Unix(c.TokenExpiry, 0)
		}
	}
	return s, nil
}
