package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// SessionUser is the slice of account state a logged-in session carries.
// The password hash never enters the session.
type SessionUser struct {
	ID    string
	Email string
	Roles []string
}

// IsAdmin reports whether the session user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

// SetUser records the logged-in user on the session.
func (m *Manager) SetUser(ctx context.Context, sid string, user SessionUser) error {
	key := userKey(sid)

	err := m.redis.HSet(ctx, key, map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
		"roles": strings.Join(user.Roles, ","),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store session user: %w", err)
	}

	if err := m.redis.Expire(ctx, key, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session user expiry: %w", err)
	}

	return nil
}

// User returns the logged-in user for the session, or ErrNoSessionUser when
// nobody is logged in.
func (m *Manager) User(ctx context.Context, sid string) (*SessionUser, error) {
	fields, err := m.redis.HGetAll(ctx, userKey(sid)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoSessionUser
		}
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}

	if len(fields) == 0 || fields["id"] == "" {
		return nil, ErrNoSessionUser
	}

	user := &SessionUser{
		ID:    fields["id"],
		Email: fields["email"],
	}
	if fields["roles"] != "" {
		user.Roles = strings.Split(fields["roles"], ",")
	}

	return user, nil
}
