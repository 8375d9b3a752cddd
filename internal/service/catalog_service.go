package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fusionic/internal/domain"
	"fusionic/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCategoryName = errors.New("category name must not be empty")
)

// Storefront and admin listings use fixed page sizes.
const (
	StorefrontPageSize = 6
	AdminPageSize      = 5
)

// ProductListing is one page of products with pagination bookkeeping.
type ProductListing struct {
	Products    []*domain.Product `json:"products"`
	CurrentPage int               `json:"current_page"`
	TotalPages  int               `json:"total_pages"`
}

// ProductInput carries the product form fields. Image is the stored filename,
// empty when no file was uploaded.
type ProductInput struct {
	Name        string
	Price       float64
	Description string
	CategoryID  uuid.UUID
	Image       string
}

// CatalogService owns category and product management plus listings.
type CatalogService interface {
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	// UpdateProduct keeps the existing image when input.Image is empty.
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// ListProducts is the storefront listing: natural order, fixed page size.
	ListProducts(ctx context.Context, page int) (*ProductListing, error)
	// FilterProducts is the admin listing with search, category filter, and
	// the four fixed sort orders.
	FilterProducts(ctx context.Context, filter repository.ProductFilter, page int) (*ProductListing, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string) error {
	if name == "" {
		return ErrEmptyCategoryName
	}

	return s.categoryRepo.Update(ctx, &domain.Category{ID: id, Name: name})
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	// Products referencing this category are deliberately left alone
	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Image:       input.Image,
		CreatedAt:   time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) error {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	image := input.Image
	if image == "" {
		image = existing.Image
	}

	return s.productRepo.Update(ctx, &domain.Product{
		ID:          id,
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Image:       image,
	})
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	// The uploaded image file is not cleaned up; orphaned files stay on disk
	return s.productRepo.Delete(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, page int) (*ProductListing, error) {
	if page < 1 {
		page = 1
	}

	products, total, err := s.productRepo.List(ctx, page, StorefrontPageSize)
	if err != nil {
		return nil, err
	}

	return &ProductListing{
		Products:    products,
		CurrentPage: page,
		TotalPages:  repository.TotalPages(total, StorefrontPageSize),
	}, nil
}

func (s *catalogService) FilterProducts(ctx context.Context, filter repository.ProductFilter, page int) (*ProductListing, error) {
	if page < 1 {
		page = 1
	}

	products, total, err := s.productRepo.Filter(ctx, filter, page, AdminPageSize)
	if err != nil {
		return nil, err
	}

	return &ProductListing{
		Products:    products,
		CurrentPage: page,
		TotalPages:  repository.TotalPages(total, AdminPageSize),
	}, nil
}
