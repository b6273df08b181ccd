package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "dataselector_session"

// CookieExpiry is how long a session cookie remains valid. The wizard is
// a short-lived flow; a day covers even a left-open browser tab.
const CookieExpiry = 24 * time.Hour

// Predefined cookie errors.
var (
	ErrInvalidCookie = errors.New("invalid session cookie")
)

// cookieClaims are the claims carried by the session cookie. The cookie
// only names the session; it carries no identity or authorization.
type cookieClaims struct {
	jwt.RegisteredClaims

	SessionID string `json:"sid"`
}

// CookieCodec signs and verifies session cookies. The signature prevents
// clients from forging another browser's session ID.
type CookieCodec struct {
	signingKey []byte
	secure     bool
}

// CookieCodecConfig holds configuration for the cookie codec.
type CookieCodecConfig struct {
	// SigningKey is the secret key used to sign session cookies.
	SigningKey string

	// Secure marks issued cookies as HTTPS-only.
	Secure bool
}

// NewCookieCodec creates a new session cookie codec.
func NewCookieCodec(cfg CookieCodecConfig) *CookieCodec {
	return &CookieCodec{
		signingKey: []byte(cfg.SigningKey),
		secure:     cfg.Secure,
	}
}

// NewSessionID generates a fresh opaque session identifier.
func NewSessionID() string {
	return "sid_" + uuid.New().String()
}

// Issue creates a signed cookie naming the given session.
func (c *CookieCodec) Issue(sessionID string) (*http.Cookie, error) {
	now := time.Now()
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(CookieExpiry)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(CookieExpiry.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode verifies a cookie value and returns the session ID it names.
func (c *CookieCodec) Decode(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	})
	if err != nil {
		return "", ErrInvalidCookie
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return claims.SessionID, nil
}
