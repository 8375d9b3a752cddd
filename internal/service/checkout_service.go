package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fusionic/internal/domain"
	"fusionic/internal/repository"
	"fusionic/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMissingFields = errors.New("missing required checkout fields")
)

// CartView is a cart resolved against the catalog. Products holds one row per
// distinct id that still exists; Count is the raw cart length, so it can
// exceed len(Products) when the cart holds duplicates or ids of deleted
// products.
type CartView struct {
	Products []*domain.Product `json:"products"`
	Count    int               `json:"cart_count"`
}

// CheckoutReview is the informational pre-submission view: the resolved cart
// plus a total computed from current catalog prices. The total actually
// submitted later is supplied by the caller and is not derived from this one.
type CheckoutReview struct {
	Products   []*domain.Product `json:"products"`
	TotalPrice float64           `json:"total_price"`
}

// CheckoutSubmission carries the checkout form fields.
type CheckoutSubmission struct {
	Name       string
	Address    string
	Phone      string
	TotalPrice string
}

// CheckoutService owns the cart view and the checkout state machine.
type CheckoutService interface {
	ViewCart(ctx context.Context, sid string) (*CartView, error)
	Review(ctx context.Context, sid string) (*CheckoutReview, error)
	// Submit validates the submission, persists an order snapshotting the raw
	// cart list, and clears the cart. On validation failure nothing is
	// persisted; on store failure the cart is left intact so the caller may
	// resubmit.
	Submit(ctx context.Context, sid string, sub CheckoutSubmission) (*domain.Order, error)
}

type checkoutService struct {
	sessions    *session.Manager
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	logger      *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	sessions *session.Manager,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		sessions:    sessions,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// ViewCart resolves the session's cart against the catalog
func (s *checkoutService) ViewCart(ctx context.Context, sid string) (*CartView, error) {
	ids, err := s.sessions.CartItems(ctx, sid)
	if err != nil {
		return nil, err
	}

	products, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &CartView{Products: products, Count: len(ids)}, nil
}

// Review computes the informational checkout total from current catalog prices
func (s *checkoutService) Review(ctx context.Context, sid string) (*CheckoutReview, error) {
	ids, err := s.sessions.CartItems(ctx, sid)
	if err != nil {
		return nil, err
	}

	products, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, p := range products {
		total += p.Price
	}

	return &CheckoutReview{Products: products, TotalPrice: total}, nil
}

// Submit runs the checkout state machine for one submission
func (s *checkoutService) Submit(ctx context.Context, sid string, sub CheckoutSubmission) (*domain.Order, error) {
	// All four fields are required; "" and "0" both count as absent
	if fieldAbsent(sub.Name) || fieldAbsent(sub.Address) || fieldAbsent(sub.Phone) || fieldAbsent(sub.TotalPrice) {
		return nil, ErrMissingFields
	}

	totalPrice, err := parsePrice(sub.TotalPrice)
	if err != nil {
		return nil, ErrMissingFields
	}

	// Serialize against a double-submit from the same session: without this,
	// two concurrent submissions could each snapshot the cart and create two
	// orders before either clears it.
	s.sessions.Lock(sid)
	defer s.sessions.Unlock(sid)

	ids, err := s.sessions.CartItems(ctx, sid)
	if err != nil {
		return nil, err
	}

	// The order snapshots the entire raw cart list: duplicates preserved, ids
	// not checked against the catalog.
	productIDs := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn("Skipping malformed product id in cart",
				zap.String("session_id", sid),
				zap.String("product_id", raw),
			)
			continue
		}
		productIDs = append(productIDs, id)
	}

	// The submitted total is what gets stored; the recomputed catalog total is
	// only compared against it so a drift is at least visible in the logs.
	if review, err := s.Review(ctx, sid); err == nil && review.TotalPrice != totalPrice {
		s.logger.Warn("Submitted total does not match catalog total",
			zap.String("session_id", sid),
			zap.Float64("submitted", totalPrice),
			zap.Float64("computed", review.TotalPrice),
		)
	}

	order := &domain.Order{
		ID:           uuid.New(),
		CustomerName: sub.Name,
		Address:      sub.Address,
		Phone:        sub.Phone,
		ProductIDs:   productIDs,
		TotalPrice:   totalPrice,
		CreatedAt:    time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// Cart stays intact so the user can resubmit
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.sessions.ClearCart(ctx, sid); err != nil {
		// The order is already committed; a stale cart is the lesser problem
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("session_id", sid),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	return order, nil
}

func (s *checkoutService) resolve(ctx context.Context, rawIDs []string) ([]*domain.Product, error) {
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}

	return s.productRepo.FindByIDs(ctx, ids)
}

func fieldAbsent(v string) bool {
	return v == "" || v == "0"
}

func parsePrice(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}
