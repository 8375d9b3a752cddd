package transport

import (
	"net/http"
	"strconv"

	"fusionic/internal/middleware"
	"fusionic/internal/service"
	"fusionic/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutResponse is the fixed response shape of the checkout endpoint.
type CheckoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Checkout endpoint messages. The exact strings are part of the contract with
// the storefront frontend.
const (
	msgFieldsMissing  = "Please fill in all fields."
	msgOrderConfirmed = "Your order has been confirmed!"
	msgOrderFailed    = "Error processing the order. Please try again."
)

// StorefrontHandler serves the public listing, cart and checkout endpoints
type StorefrontHandler struct {
	catalog  service.CatalogService
	checkout service.CheckoutService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(
	catalog service.CatalogService,
	checkout service.CheckoutService,
	sessions *session.Manager,
	logger *zap.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:  catalog,
		checkout: checkout,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the storefront routes
func (h *StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Post("/cart/add", h.AddToCart)
	r.Get("/cart", h.ViewCart)
	r.Get("/checkout", h.ReviewCheckout)
	r.Post("/checkout", h.SubmitCheckout)
}

// Home serves the paginated product listing
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	listing, err := h.catalog.ListProducts(r.Context(), page)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, listing)
}

// AddToCart appends the submitted product id to the session cart and sends the
// client back to where it came from. There is no catalog existence check.
func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	productID := r.FormValue("productId")
	if productID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "productId is required")
		return
	}

	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "no session")
		return
	}

	if err := h.sessions.AddToCart(r.Context(), sid, productID); err != nil {
		h.logger.Error("Failed to add to cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		return
	}

	back := r.Referer()
	if back == "" {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// ViewCart resolves the cart against the catalog. Ids of deleted products
// silently resolve to nothing, and the reported count is the raw list length.
func (h *StorefrontHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "no session")
		return
	}

	view, err := h.checkout.ViewCart(r.Context(), sid)
	if err != nil {
		h.logger.Error("Failed to view cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// ReviewCheckout returns the resolved cart with a total computed from current
// catalog prices. The figure is informational only.
func (h *StorefrontHandler) ReviewCheckout(w http.ResponseWriter, r *http.Request) {
	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "no session")
		return
	}

	review, err := h.checkout.Review(r.Context(), sid)
	if err != nil {
		h.logger.Error("Failed to review checkout", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, review)
}

// SubmitCheckout finalizes the cart into an order
func (h *StorefrontHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.RespondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Message: msgFieldsMissing})
		return
	}

	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithJSON(w, http.StatusInternalServerError, CheckoutResponse{Success: false, Message: msgOrderFailed})
		return
	}

	sub := service.CheckoutSubmission{
		Name:       r.FormValue("name"),
		Address:    r.FormValue("address"),
		Phone:      r.FormValue("phone"),
		TotalPrice: r.FormValue("totalPrice"),
	}

	order, err := h.checkout.Submit(r.Context(), sid, sub)
	if err != nil {
		if err == service.ErrMissingFields {
			middleware.RespondWithJSON(w, http.StatusBadRequest, CheckoutResponse{Success: false, Message: msgFieldsMissing})
			return
		}

		h.logger.Error("Failed to process order", zap.String("session_id", sid), zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusInternalServerError, CheckoutResponse{Success: false, Message: msgOrderFailed})
		return
	}

	h.logger.Info("Order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.Float64("total_price", order.TotalPrice),
		zap.Int("items", len(order.ProductIDs)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutResponse{Success: true, Message: msgOrderConfirmed})
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
