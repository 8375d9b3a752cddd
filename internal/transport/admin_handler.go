package transport

import (
	"net/http"
	"strconv"

	"fusionic/internal/middleware"
	"fusionic/internal/repository"
	"fusionic/internal/service"
	"fusionic/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize bounds product image uploads
const maxUploadSize = 10 << 20 // 10 MiB

// AdminHandler serves the category/product management and order listing
// endpoints. All routes are behind the admin gate.
type AdminHandler struct {
	catalog   service.CatalogService
	orderRepo repository.OrderRepository
	images    *upload.ImageStore
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	catalog service.CatalogService,
	orderRepo repository.OrderRepository,
	images *upload.ImageStore,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:   catalog,
		orderRepo: orderRepo,
		images:    images,
		logger:    logger,
	}
}

// RegisterRoutes registers the admin routes behind the admin middleware
func (h *AdminHandler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)

		r.Get("/admin", h.Panel)
		r.Get("/admin/orders", h.ListOrders)

		r.Get("/add-category", h.ManageCategories)
		r.Get("/categories/add", h.NewCategoryForm)
		r.Post("/categories/add", h.CreateCategory)
		r.Get("/categories/edit/{id}", h.EditCategoryForm)
		r.Post("/categories/edit/{id}", h.UpdateCategory)
		r.Get("/categories/delete/{id}", h.DeleteCategory)

		r.Get("/add-product", h.ManageProducts)
		r.Get("/products/add", h.NewProductForm)
		r.Post("/products/add", h.CreateProduct)
		r.Get("/products/edit/{id}", h.EditProductForm)
		r.Post("/products/edit/{id}", h.UpdateProduct)
		r.Get("/products/delete/{id}", h.DeleteProduct)
	})
}

// Panel serves the admin landing data
func (h *AdminHandler) Panel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetSessionUser(r.Context())

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":     user.Email,
		"sections": []string{"categories", "products", "orders"},
	})
}

/* ----- categories ----- */

// ManageCategories lists all categories for the management screen
func (h *AdminHandler) ManageCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// NewCategoryForm serves the (empty) category form data
func (h *AdminHandler) NewCategoryForm(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
}

// CreateCategory accepts the add-category form submission
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	if _, err := h.catalog.CreateCategory(r.Context(), r.FormValue("name")); err != nil {
		if err == service.ErrEmptyCategoryName {
			middleware.RespondWithError(w, http.StatusBadRequest, "name is required")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	http.Redirect(w, r, "/add-category", http.StatusSeeOther)
}

// EditCategoryForm serves the pre-filled category form data
func (h *AdminHandler) EditCategoryForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to fetch category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"category": category})
}

// UpdateCategory accepts the edit-category form submission
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	if err := h.catalog.UpdateCategory(r.Context(), id, r.FormValue("name")); err != nil {
		switch err {
		case service.ErrEmptyCategoryName:
			middleware.RespondWithError(w, http.StatusBadRequest, "name is required")
		case repository.ErrCategoryNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		default:
			h.logger.Error("Failed to update category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		}
		return
	}

	http.Redirect(w, r, "/add-category", http.StatusSeeOther)
}

// DeleteCategory removes a category. Deleting an already-absent category is
// treated as success.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil && err != repository.ErrCategoryNotFound {
		h.logger.Error("Failed to delete category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	http.Redirect(w, r, "/add-category", http.StatusSeeOther)
}

/* ----- products ----- */

// ManageProducts lists products with search, category filter, sorting, and
// pagination for the management screen
func (h *AdminHandler) ManageProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if raw := q.Get("category"); raw != "" {
		if categoryID, err := uuid.Parse(raw); err == nil {
			filter.CategoryID = &categoryID
		}
	}

	listing, err := h.catalog.FilterProducts(r.Context(), filter, pageParam(r))
	if err != nil {
		h.logger.Error("Failed to filter products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products":          listing.Products,
		"categories":        categories,
		"current_page":      listing.CurrentPage,
		"total_pages":       listing.TotalPages,
		"search":            filter.Search,
		"selected_category": q.Get("category"),
		"sort":              filter.Sort,
	})
}

// NewProductForm serves the categories needed by the add-product form
func (h *AdminHandler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateProduct accepts the multipart add-product form with its image file
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.productForm(w, r, true)
	if !ok {
		return
	}

	if _, err := h.catalog.CreateProduct(r.Context(), *input); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	http.Redirect(w, r, "/add-product", http.StatusSeeOther)
}

// EditProductForm serves the pre-filled product form data
func (h *AdminHandler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to fetch product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"product":    product,
		"categories": categories,
	})
}

// UpdateProduct accepts the multipart edit-product form; the image file is
// optional and the old image is kept when no new one is uploaded
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	input, formOK := h.productForm(w, r, false)
	if !formOK {
		return
	}

	if err := h.catalog.UpdateProduct(r.Context(), id, *input); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	http.Redirect(w, r, "/add-product", http.StatusSeeOther)
}

// DeleteProduct removes a product; its image file stays on disk
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil && err != repository.ErrProductNotFound {
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	http.Redirect(w, r, "/add-product", http.StatusSeeOther)
}

/* ----- orders ----- */

// ListOrders lists orders with product references resolved against the
// current catalog. References to deleted products stay as bare ids.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.ListWithProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

/* ----- helpers ----- */

// productForm parses the multipart product form. The image file is required
// when imageRequired is set; an upload that is not a JPEG or PNG is rejected.
func (h *AdminHandler) productForm(w http.ResponseWriter, r *http.Request, imageRequired bool) (*service.ProductInput, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form data")
		return nil, false
	}

	name := r.FormValue("name")
	if name == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "price must be a number")
		return nil, false
	}

	categoryID, err := uuid.Parse(r.FormValue("category"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "category is required")
		return nil, false
	}

	input := &service.ProductInput{
		Name:        name,
		Price:       price,
		Description: r.FormValue("description"),
		CategoryID:  categoryID,
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile && !imageRequired {
			return input, true
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return nil, false
	}
	defer file.Close()

	filename, err := h.images.Save(file, header.Filename)
	if err != nil {
		if err == upload.ErrInvalidFileType {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		h.logger.Error("Failed to store image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		return nil, false
	}

	input.Image = filename
	return input, true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
