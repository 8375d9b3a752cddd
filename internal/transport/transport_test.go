package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fusionic/internal/domain"
	"fusionic/internal/middleware"
	"fusionic/internal/repository"
	"fusionic/internal/service"
	"fusionic/internal/session"
	"fusionic/internal/upload"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory repositories backing the handler tests.

type mockProductRepository struct {
	products []*domain.Product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products = append(m.products, product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	for i, p := range m.products {
		if p.ID == product.ID {
			m.products[i] = product
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	seen := map[uuid.UUID]bool{}
	out := []*domain.Product{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, p := range m.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Product, int, error) {
	start := (page - 1) * pageSize
	if start > len(m.products) {
		start = len(m.products)
	}
	end := start + pageSize
	if end > len(m.products) {
		end = len(m.products)
	}
	return m.products[start:end], len(m.products), nil
}

func (m *mockProductRepository) Filter(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*domain.Product, int, error) {
	return m.List(ctx, page, pageSize)
}

type mockOrderRepository struct {
	orders  []*domain.Order
	failing bool
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.failing {
		return errors.New("store unavailable")
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListWithProducts(ctx context.Context) ([]*repository.OrderWithProducts, error) {
	out := []*repository.OrderWithProducts{}
	for _, o := range m.orders {
		out = append(out, &repository.OrderWithProducts{Order: *o})
	}
	return out, nil
}

type mockCategoryRepository struct {
	categories []*domain.Category
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.categories = append(m.categories, category)
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	for i, c := range m.categories {
		if c.ID == category.ID {
			m.categories[i] = category
			return nil
		}
	}
	return repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for i, c := range m.categories {
		if c.ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return m.categories, nil
}

type mockUserRepository struct {
	users []*domain.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// fixture wires the full router the way the server does, with the stores
// swapped for in-memory fakes and Redis swapped for miniredis. Cookies are
// carried between requests so a test behaves like one browser session.
type fixture struct {
	t          *testing.T
	router     chi.Router
	sessions   *session.Manager
	products   *mockProductRepository
	orders     *mockOrderRepository
	categories *mockCategoryRepository
	users      *mockUserRepository
	cookies    map[string]*http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	sessions := session.NewManager(client, "test-secret", time.Hour)

	products := &mockProductRepository{}
	orders := &mockOrderRepository{}
	categories := &mockCategoryRepository{}
	users := &mockUserRepository{}

	catalog := service.NewCatalogService(categories, products)
	checkout := service.NewCheckoutService(sessions, products, orders, logger)
	userSvc := service.NewUserService(users)

	images, err := upload.NewImageStore(t.TempDir())
	require.NoError(t, err)

	rateLimit := middleware.RateLimitMiddleware(client, middleware.RateLimitConfig{
		RequestsPerWindow: 1000,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions, logger))

	NewStorefrontHandler(catalog, checkout, sessions, logger).RegisterRoutes(r)
	NewUserHandler(userSvc, sessions, logger).RegisterRoutes(r, rateLimit)
	NewAdminHandler(catalog, orders, images, logger).RegisterRoutes(r, middleware.RequireAdmin(logger))

	return &fixture{
		t:          t,
		router:     r,
		sessions:   sessions,
		products:   products,
		orders:     orders,
		categories: categories,
		users:      users,
		cookies:    make(map[string]*http.Cookie),
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	f.t.Helper()

	for _, c := range f.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(f.cookies, c.Name)
			continue
		}
		f.cookies[c.Name] = c
	}
	return rec
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) postMultipart(path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return f.do(req)
}

// addProduct seeds the catalog directly.
func (f *fixture) addProduct(name string, price float64) *domain.Product {
	f.t.Helper()
	p := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Image:     "test.png",
		CreatedAt: time.Now(),
	}
	require.NoError(f.t, f.products.Create(context.Background(), p))
	return p
}

// register creates an account through the HTTP surface.
func (f *fixture) register(name, email, password string) *httptest.ResponseRecorder {
	return f.postForm("/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
}

// login authenticates through the HTTP surface, carrying the session cookie.
func (f *fixture) login(email, password string) *httptest.ResponseRecorder {
	return f.postForm("/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

// loginAs registers an account with the given roles and logs it in.
func (f *fixture) loginAs(email string, roles ...string) {
	f.t.Helper()

	rec := f.register("Test User", email, "password123")
	require.Equal(f.t, http.StatusSeeOther, rec.Code)

	if len(roles) > 0 {
		user, err := f.users.FindByEmail(context.Background(), email)
		require.NoError(f.t, err)
		user.Roles = roles
	}

	rec = f.login(email, "password123")
	require.Equal(f.t, http.StatusSeeOther, rec.Code)
}
