package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
	"github.com/tejasmadane2310/billing-ledger/internal/port"
)

// CatalogService covers the operator-facing plumbing around the billing core:
// registering customers and products, stock overrides, and read-only lookups.
type CatalogService struct {
	store  port.LedgerRepository
	cache  port.CacheRepository
	logger *zap.Logger
}

func NewCatalogService(store port.LedgerRepository, cache port.CacheRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *CatalogService) AddCustomer(ctx context.Context, name, phone, email string) (domain.Customer, error) {
	if name == "" {
		return domain.Customer{}, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	s.logger.Info("customer added", zap.String("customer_id", customer.ID))
	return customer, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *CatalogService) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	if phone == "" {
		return nil, &domain.ValidationError{Field: "phone", Reason: "must not be empty"}
	}
	return s.store.FindCustomerByPhone(ctx, phone)
}

// AddProduct registers a product with its initial stock. The price arrives as
// a decimal string and never passes through a float.
func (s *CatalogService) AddProduct(ctx context.Context, name, price, sku string, initialStock int) (domain.Product, error) {
	if name == "" {
		return domain.Product{}, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	unitPrice, err := domain.ParseMoney(price)
	if err != nil {
		return domain.Product{}, &domain.ValidationError{Field: "price", Reason: "not a valid decimal amount"}
	}
	if unitPrice.IsNegative() {
		return domain.Product{}, &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if initialStock < 0 {
		return domain.Product{}, &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}

	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     unitPrice.Round(),
		SKU:       sku,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateProduct(ctx, product, initialStock); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product added",
		zap.String("product_id", product.ID),
		zap.String("price", product.Price.String()),
		zap.Int("stock", initialStock))
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.ProductSnapshot, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	return s.store.GetProductSnapshot(ctx, productID)
}

// SetStock overwrites a product's stock level and drops its cached snapshot.
func (s *CatalogService) SetStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		return &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}

	if err := s.store.SetStock(ctx, productID, stock); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("product_id", productID), zap.Error(err))
		}
	}

	s.logger.Info("stock set", zap.String("product_id", productID), zap.Int("stock", stock))
	return nil
}
