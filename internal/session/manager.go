package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie held by the browser.
const CookieName = "fusionic_session"

var (
	ErrNoSessionUser = errors.New("no user in session")
)

// Manager owns all server-side session state. The client holds only a signed
// token carrying the session ID; cart contents and the logged-in user live in
// Redis under that ID. A missing, expired, or tampered token simply starts a
// fresh session.
type Manager struct {
	redis  *redis.Client
	secret []byte
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a session manager backed by the given Redis client.
func NewManager(redisClient *redis.Client, secret string, ttl time.Duration) *Manager {
	return &Manager{
		redis:  redisClient,
		secret: []byte(secret),
		ttl:    ttl,
		locks:  map[string]*sync.Mutex{},
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Load resolves the session for an inbound request. If the request carries a
// valid session cookie its ID is reused; otherwise a new session ID is minted.
// The returned flag reports whether the session is new, in which case the
// caller should Attach the session to the response.
func (m *Manager) Load(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err == nil {
		if sid, err := m.verify(cookie.Value); err == nil {
			return sid, false
		}
	}
	return uuid.New().String(), true
}

// Attach sets the signed session cookie on the response.
func (m *Manager) Attach(w http.ResponseWriter, sid string) error {
	token, err := m.sign(sid)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Expire clears the session cookie on the response.
func (m *Manager) Expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Lock acquires the per-session mutex. Checkout submission runs under it so a
// double-submit from one session cannot interleave read-cart, persist-order,
// and clear-cart steps.
func (m *Manager) Lock(sid string) {
	m.mu.Lock()
	l, ok := m.locks[sid]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sid] = l
	}
	m.mu.Unlock()
	l.Lock()
}

// Unlock releases the per-session mutex.
func (m *Manager) Unlock(sid string) {
	m.mu.Lock()
	l, ok := m.locks[sid]
	m.mu.Unlock()
	if ok {
		l.Unlock()
	}
}

func (m *Manager) sign(sid string) (string, error) {
	claims := &sessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	return claims.SessionID, nil
}

// Destroy drops all server-side state for the session.
func (m *Manager) Destroy(ctx context.Context, sid string) error {
	if err := m.redis.Del(ctx, cartKey(sid), userKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	m.mu.Lock()
	delete(m.locks, sid)
	m.mu.Unlock()

	return nil
}

func cartKey(sid string) string {
	return "session:" + sid + ":cart"
}

func userKey(sid string) string {
	return "session:" + sid + ":user"
}
