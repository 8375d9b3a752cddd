package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category managed from the admin panel
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product represents a storefront product. CategoryID references a Category
// but is not enforced with a foreign key; a product may outlive its category.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Price       float64   `json:"price" db:"price"`
	Description string    `json:"description" db:"description"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	Image       string    `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
