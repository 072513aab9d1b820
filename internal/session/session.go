// Package session hands every visitor an opaque session id, carried in a
// signed cookie. The token only makes the id tamper-proof; there is no
// authentication.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "shopfront_session"

type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: "shopfront",
		ttl:    ttl,
	}
}

type claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func (m *Manager) newToken() (id, token string, err error) {
	id = "s_" + uuid.NewString()
	now := time.Now()

	c := claims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	return id, token, err
}

func (m *Manager) parse(token string) (string, error) {
	var c claims

	t, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || t == nil || !t.Valid {
		return "", errors.New("invalid token")
	}

	if c.Issuer != "" && c.Issuer != m.issuer {
		return "", errors.New("invalid issuer")
	}
	if c.SessionID == "" {
		return "", errors.New("missing session id")
	}

	return c.SessionID, nil
}

type ctxKey struct{}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

// Middleware resolves the session cookie, minting a fresh session (and
// setting the cookie) when it is absent or invalid, and puts the session
// id on the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""

		if c, err := r.Cookie(CookieName); err == nil {
			if sid, err := m.parse(c.Value); err == nil {
				id = sid
			}
		}

		if id == "" {
			sid, token, err := m.newToken()
			if err != nil {
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}
			id = sid
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.ttl / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}
