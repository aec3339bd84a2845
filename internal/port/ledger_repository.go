package port

import (
	"context"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

// LedgerRepository is the ACID relational store behind the billing core.
type LedgerRepository interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) error

	// FindCustomerByPhone returns nil when no customer has the phone. Phone is
	// not guaranteed unique; the first match wins.
	FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	// CreateProduct inserts the product and its inventory row together.
	CreateProduct(ctx context.Context, product domain.Product, initialStock int) error

	// GetProductSnapshot returns nil when the product does not exist.
	GetProductSnapshot(ctx context.Context, productID string) (*domain.ProductSnapshot, error)

	ListProducts(ctx context.Context) ([]domain.ProductSnapshot, error)

	// SetStock overwrites a product's stock level (admin operation).
	SetStock(ctx context.Context, productID string, stock int) error

	// CreateBill persists the bill header, its items and the per-product stock
	// decrements in one transaction. Stock is re-validated against the live
	// value inside the transaction; on a failed re-validation nothing is
	// persisted and an InsufficientStockError for the offending line is
	// returned.
	CreateBill(ctx context.Context, bill domain.Bill, items []domain.BillItem) error

	// GetBill returns nil when the bill does not exist.
	GetBill(ctx context.Context, billID string) (*domain.Bill, error)

	GetBillItems(ctx context.Context, billID string) ([]domain.BillItem, error)

	// ListRecentBills returns up to limit summaries, newest first.
	ListRecentBills(ctx context.Context, limit int) ([]domain.BillSummary, error)
}
