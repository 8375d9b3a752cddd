package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fusionic/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderLine is one cart position inside a stored order. Product is nil when
// the referenced product no longer exists in the catalog.
type OrderLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Product   *domain.Product `json:"product,omitempty"`
}

// OrderWithProducts is an order together with its product references resolved
// against the current catalog.
type OrderWithProducts struct {
	Order domain.Order `json:"order"`
	Lines []OrderLine  `json:"lines"`
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create persists an order and its item list in a single transaction.
	// Either the whole snapshot is stored or nothing is.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// ListWithProducts returns all orders newest first, each with its product
	// references resolved against the catalog.
	ListWithProducts(ctx context.Context) ([]*OrderWithProducts, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts an order and its items transactionally
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, customer_name, address, phone, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.CustomerName,
		order.Address,
		order.Phone,
		order.TotalPrice,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, position)
		VALUES ($1, $2, $3, $4)
	`

	for i, productID := range order.ProductIDs {
		_, err = tx.ExecContext(ctx, itemQuery, uuid.New(), order.ID, productID, i)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its raw product id list
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, customer_name, address, phone, total_price, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.CustomerName,
		&order.Address,
		&order.Phone,
		&order.TotalPrice,
		&order.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	itemsQuery := `
		SELECT product_id
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		if err := rows.Scan(&productID); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.ProductIDs = append(order.ProductIDs, productID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, nil
}

// ListWithProducts retrieves all orders with resolved product references
func (r *orderRepository) ListWithProducts(ctx context.Context) ([]*OrderWithProducts, error) {
	query := `
		SELECT o.id, o.customer_name, o.address, o.phone, o.total_price, o.created_at,
		       i.product_id,
		       p.id, p.name, p.price, p.description, p.category_id, p.image, p.created_at
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		LEFT JOIN products p ON p.id = i.product_id
		ORDER BY o.created_at DESC, o.id, i.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*OrderWithProducts{}
	var current *OrderWithProducts

	for rows.Next() {
		order := domain.Order{}
		var itemProductID uuid.NullUUID
		var pID uuid.NullUUID
		var pName, pDescription, pImage sql.NullString
		var pPrice sql.NullFloat64
		var pCategoryID uuid.NullUUID
		var pCreatedAt sql.NullTime

		err := rows.Scan(
			&order.ID,
			&order.CustomerName,
			&order.Address,
			&order.Phone,
			&order.TotalPrice,
			&order.CreatedAt,
			&itemProductID,
			&pID,
			&pName,
			&pPrice,
			&pDescription,
			&pCategoryID,
			&pImage,
			&pCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		if current == nil || current.Order.ID != order.ID {
			current = &OrderWithProducts{Order: order, Lines: []OrderLine{}}
			orders = append(orders, current)
		}

		// Order with no items at all produces a single NULL item row
		if !itemProductID.Valid {
			continue
		}

		line := OrderLine{ProductID: itemProductID.UUID}
		if pID.Valid {
			line.Product = &domain.Product{
				ID:          pID.UUID,
				Name:        pName.String,
				Price:       pPrice.Float64,
				Description: pDescription.String,
				CategoryID:  pCategoryID.UUID,
				Image:       pImage.String,
				CreatedAt:   pCreatedAt.Time,
			}
		}

		current.Order.ProductIDs = append(current.Order.ProductIDs, itemProductID.UUID)
		current.Lines = append(current.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}
