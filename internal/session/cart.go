package session

import (
	"context"
	"fmt"
)

// Cart operations. The cart is an ordered Redis list of product id strings:
// the same id may appear more than once, and ids are never checked against
// the catalog here. Resolution against real products happens at render time.

// AddToCart appends a product id to the session's cart. It always succeeds as
// long as Redis is reachable.
func (m *Manager) AddToCart(ctx context.Context, sid, productID string) error {
	key := cartKey(sid)

	if err := m.redis.RPush(ctx, key, productID).Err(); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	// Refresh the TTL so an active cart lives as long as the session
	if err := m.redis.Expire(ctx, key, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh cart expiry: %w", err)
	}

	return nil
}

// CartItems returns the raw ordered cart list, duplicates included. An absent
// cart is an empty list, never an error.
func (m *Manager) CartItems(ctx context.Context, sid string) ([]string, error) {
	items, err := m.redis.LRange(ctx, cartKey(sid), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return items, nil
}

// CartCount returns the raw cart length, counting duplicate ids separately.
func (m *Manager) CartCount(ctx context.Context, sid string) (int, error) {
	n, err := m.redis.LLen(ctx, cartKey(sid)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count cart: %w", err)
	}
	return int(n), nil
}

// ClearCart resets the cart to empty. Called as a side effect of a committed
// checkout.
func (m *Manager) ClearCart(ctx context.Context, sid string) error {
	if err := m.redis.Del(ctx, cartKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
