package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fusionic/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo ProductRepository, name string, price float64, categoryID uuid.UUID, createdAt time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       price,
		Description: "seeded",
		CategoryID:  categoryID,
		Image:       "seed.png",
		CreatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductCRUD(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	created := seedProduct(t, repo, "Phone", 99.99, uuid.New(), time.Now())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", found.Name)
	assert.Equal(t, 99.99, found.Price)

	created.Name = "Phone v2"
	created.Price = 109.99
	require.NoError(t, repo.Update(ctx, created))

	found, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone v2", found.Name)
	assert.Equal(t, 109.99, found.Price)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductUpdateAndDeleteOfAbsentRow(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	err := repo.Update(ctx, &domain.Product{ID: uuid.New(), Name: "Ghost"})
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = repo.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFindByIDsIsAMembershipQuery(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	p1 := seedProduct(t, repo, "Phone", 10, uuid.New(), time.Now())
	p2 := seedProduct(t, repo, "Case", 15, uuid.New(), time.Now())

	// Duplicates resolve once, unknown ids resolve to nothing
	products, err := repo.FindByIDs(ctx, []uuid.UUID{p1.ID, p1.ID, p2.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("Product %d", i)
		names = append(names, name)
		seedProduct(t, repo, name, float64(i), uuid.New(), base.Add(time.Duration(i)*time.Minute))
	}

	page1, total, err := repo.List(ctx, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	require.Len(t, page1, 6)

	page2, _, err := repo.List(ctx, 2, 6)
	require.NoError(t, err)
	require.Len(t, page2, 2)

	var got []string
	for _, p := range append(page1, page2...) {
		got = append(got, p.Name)
	}
	assert.Equal(t, names, got)
}

// Pagination covers every row exactly once, even with page sizes that do not
// divide the row count.
func TestProperty_PaginationIsExhaustiveAndDisjoint(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pages partition the catalog", prop.ForAll(
		func(count, pageSize int) bool {
			truncate(t, "products")
			repo := NewProductRepository(testDB)
			ctx := context.Background()

			base := time.Now().Add(-time.Hour)
			for i := 0; i < count; i++ {
				seedProduct(t, repo, fmt.Sprintf("Product %d", i), float64(i), uuid.New(), base.Add(time.Duration(i)*time.Second))
			}

			pages := TotalPages(count, pageSize)
			if pages != (count+pageSize-1)/pageSize {
				return false
			}

			seen := map[uuid.UUID]bool{}
			for page := 1; page <= pages; page++ {
				products, total, err := repo.List(ctx, page, pageSize)
				if err != nil || total != count {
					return false
				}
				for _, p := range products {
					if seen[p.ID] {
						return false
					}
					seen[p.ID] = true
				}
			}
			return len(seen) == count
		},
		gen.IntRange(0, 15),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFilterBySearchIsCaseInsensitive(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	seedProduct(t, repo, "Smartphone", 10, uuid.New(), time.Now())
	seedProduct(t, repo, "Laptop", 20, uuid.New(), time.Now())

	products, total, err := repo.Filter(ctx, ProductFilter{Search: "PHONE"}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Smartphone", products[0].Name)
}

func TestFilterByCategory(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	electronics := uuid.New()
	books := uuid.New()
	seedProduct(t, repo, "Phone", 10, electronics, time.Now())
	seedProduct(t, repo, "Novel", 20, books, time.Now())

	products, total, err := repo.Filter(ctx, ProductFilter{CategoryID: &electronics}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Phone", products[0].Name)
}

func TestFilterSortOrders(t *testing.T) {
	truncate(t, "products")
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedProduct(t, repo, "Banana", 3, uuid.New(), base)
	seedProduct(t, repo, "Apple", 2, uuid.New(), base.Add(time.Minute))
	seedProduct(t, repo, "Cherry", 1, uuid.New(), base.Add(2*time.Minute))

	cases := []struct {
		sort string
		want []string
	}{
		{SortPriceAsc, []string{"Cherry", "Apple", "Banana"}},
		{SortPriceDesc, []string{"Banana", "Apple", "Cherry"}},
		{SortNameAsc, []string{"Apple", "Banana", "Cherry"}},
		{SortNameDesc, []string{"Cherry", "Banana", "Apple"}},
		{"", []string{"Banana", "Apple", "Cherry"}},
		{"price; DROP TABLE products", []string{"Banana", "Apple", "Cherry"}},
	}

	for _, tc := range cases {
		products, _, err := repo.Filter(ctx, ProductFilter{Sort: tc.sort}, 1, 5)
		require.NoError(t, err, tc.sort)

		var got []string
		for _, p := range products {
			got = append(got, p.Name)
		}
		assert.Equal(t, tc.want, got, tc.sort)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 6))
	assert.Equal(t, 1, TotalPages(1, 6))
	assert.Equal(t, 1, TotalPages(6, 6))
	assert.Equal(t, 2, TotalPages(7, 6))
	assert.Equal(t, 3, TotalPages(11, 5))
	assert.Equal(t, 0, TotalPages(10, 0))
}
