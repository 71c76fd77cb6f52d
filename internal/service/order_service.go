package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Comfy-team/comfy/internal/domain"
	"github.com/Comfy-team/comfy/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrNotOrderOwner      = errors.New("order belongs to another user")
)

// OrderItemInput is one requested line item.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderService defines the interface for order business logic. Placed orders
// snapshot product name and price at order time.
type OrderService interface {
	Place(ctx context.Context, userID uuid.UUID, items []OrderItemInput) (*domain.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*domain.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository) OrderService {
	return &orderService{
		orders:   orders,
		products: products,
	}
}

// Place resolves each requested product, snapshots its name and price, and
// inserts a pending order with a server-computed total.
func (s *orderService) Place(ctx context.Context, userID uuid.UUID, items []OrderItemInput) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]domain.OrderItem, 0, len(items))
	total := 0.0
	for _, item := range items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve order item %s: %w", item.ProductID, err)
		}
		lines = append(lines, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		total += product.Price * float64(item.Quantity)
	}

	now := time.Now()
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     lines,
		Total:     total,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// ListForUser returns the user's own orders, newest first
func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// Get returns one order; non-admin callers only see their own.
func (s *orderService) Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	return order, nil
}

// SetStatus moves an order to a new status
func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !domain.ValidOrderStatus(status) {
		return ErrInvalidOrderStatus
	}
	return s.orders.UpdateStatus(ctx, id, status)
}
