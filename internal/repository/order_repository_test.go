package repository

import (
	"context"
	"testing"
	"time"

	"fusionic/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, repo OrderRepository, productIDs []uuid.UUID, createdAt time.Time) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:           uuid.New(),
		CustomerName: "Jane",
		Address:      "1 Main St",
		Phone:        "555-0100",
		ProductIDs:   productIDs,
		TotalPrice:   25,
		CreatedAt:    createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestOrderRoundTripKeepsRawProductList(t *testing.T) {
	truncate(t, "orders", "products")
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	// Duplicates and ids with no catalog row are stored as-is
	p1 := uuid.New()
	p2 := uuid.New()
	created := seedOrder(t, repo, []uuid.UUID{p1, p1, p2}, time.Now())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CustomerName, found.CustomerName)
	assert.Equal(t, created.TotalPrice, found.TotalPrice)
	assert.Equal(t, []uuid.UUID{p1, p1, p2}, found.ProductIDs)
}

func TestOrderWithEmptyProductList(t *testing.T) {
	truncate(t, "orders", "products")
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	created := seedOrder(t, repo, nil, time.Now())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, found.ProductIDs)
}

func TestFindMissingOrder(t *testing.T) {
	truncate(t, "orders")
	repo := NewOrderRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListWithProductsResolvesAgainstCurrentCatalog(t *testing.T) {
	truncate(t, "orders", "products")
	orderRepo := NewOrderRepository(testDB)
	productRepo := NewProductRepository(testDB)
	ctx := context.Background()

	kept := seedProduct(t, productRepo, "Phone", 10, uuid.New(), time.Now())
	deleted := seedProduct(t, productRepo, "Discontinued", 5, uuid.New(), time.Now())

	created := seedOrder(t, orderRepo, []uuid.UUID{kept.ID, deleted.ID}, time.Now())
	require.NoError(t, productRepo.Delete(ctx, deleted.ID))

	orders, err := orderRepo.ListWithProducts(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, created.ID, order.Order.ID)
	require.Len(t, order.Lines, 2)

	// The surviving product is resolved, the deleted one stays a bare id
	assert.Equal(t, kept.ID, order.Lines[0].ProductID)
	require.NotNil(t, order.Lines[0].Product)
	assert.Equal(t, "Phone", order.Lines[0].Product.Name)

	assert.Equal(t, deleted.ID, order.Lines[1].ProductID)
	assert.Nil(t, order.Lines[1].Product)
}

func TestListWithProductsOrdersNewestFirst(t *testing.T) {
	truncate(t, "orders", "products")
	repo := NewOrderRepository(testDB)

	base := time.Now().Add(-time.Hour)
	oldest := seedOrder(t, repo, nil, base)
	newest := seedOrder(t, repo, nil, base.Add(time.Minute))

	orders, err := repo.ListWithProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newest.ID, orders[0].Order.ID)
	assert.Equal(t, oldest.ID, orders[1].Order.ID)
}

func TestListWithProductsKeepsItemPositions(t *testing.T) {
	truncate(t, "orders", "products")
	repo := NewOrderRepository(testDB)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	seedOrder(t, repo, ids, time.Now())

	orders, err := repo.ListWithProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, ids, orders[0].Order.ProductIDs)
}
