package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order is an immutable snapshot of a completed checkout. ProductIDs is the
// raw cart list at submission time: duplicates are preserved and ids are not
// checked against the catalog, so an id may reference a since-deleted product.
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	CustomerName string      `json:"name" db:"customer_name"`
	Address      string      `json:"address" db:"address"`
	Phone        string      `json:"phone" db:"phone"`
	ProductIDs   []uuid.UUID `json:"products"`
	TotalPrice   float64     `json:"total_price" db:"total_price"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}
