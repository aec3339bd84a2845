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

// CartState tracks a cart through the billing state machine:
// building → validating → committing → {committed, aborted}.
type CartState string

const (
	StateBuilding   CartState = "building"
	StateValidating CartState = "validating"
	StateCommitting CartState = "committing"
	StateCommitted  CartState = "committed"
	StateAborted    CartState = "aborted"
)

// BillingService creates carts and orchestrates their atomic commit against
// the ledger store. The cache is optional; when nil every advisory read goes
// straight to the store.
type BillingService struct {
	store  port.LedgerRepository
	cache  port.CacheRepository
	cfg    Config
	logger *zap.Logger
}

func NewBillingService(store port.LedgerRepository, cache port.CacheRepository, cfg Config, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Cart is a single-session, in-memory cart. It is owned by one caller and is
// not safe for concurrent use; isolation between concurrent sales is provided
// by the store transaction at commit time, not by the cart.
type Cart struct {
	svc        *BillingService
	state      CartState
	customerID string
	lines      []domain.CartLine
	totals     Totals
}

// NewCart starts a billing session. An empty phone means a walk-in sale;
// otherwise the customer must resolve before any cart work begins.
func (s *BillingService) NewCart(ctx context.Context, phone string) (*Cart, error) {
	var customerID string
	if phone != "" {
		customer, err := s.store.FindCustomerByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("find customer by phone: %w", err)
		}
		if customer == nil {
			return nil, domain.ErrCustomerNotFound
		}
		customerID = customer.ID
	}

	return &Cart{
		svc:        s,
		state:      StateBuilding,
		customerID: customerID,
	}, nil
}

// State reports where the cart is in the billing state machine.
func (c *Cart) State() CartState {
	return c.state
}

// Lines returns the accepted cart lines.
func (c *Cart) Lines() []domain.CartLine {
	return c.lines
}

// AddLine validates and appends one (product, quantity) pair. The stock check
// here is advisory, read from the snapshot visible now; a rejected line leaves
// the cart unchanged. The unit price is snapshotted at addition time.
func (c *Cart) AddLine(ctx context.Context, productID string, quantity int) error {
	if c.state != StateBuilding {
		return fmt.Errorf("add line in state %s: %w", c.state, domain.ErrCartClosed)
	}
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	snapshot, err := c.svc.productSnapshot(ctx, productID)
	if err != nil {
		return fmt.Errorf("read product snapshot: %w", err)
	}
	if snapshot == nil {
		return domain.ErrProductNotFound
	}
	if quantity > snapshot.Stock {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: snapshot.Stock,
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: snapshot.Price,
		LineTotal: snapshot.Price.MulInt(quantity),
	})
	return nil
}

// Finalize closes the cart to further lines and computes the invoice totals.
// An empty cart is rejected and stays open so the caller can add lines.
func (c *Cart) Finalize() (Totals, error) {
	if c.state != StateBuilding {
		return Totals{}, fmt.Errorf("finalize in state %s: %w", c.state, domain.ErrCartClosed)
	}
	if len(c.lines) == 0 {
		return Totals{}, domain.ErrEmptyCart
	}

	c.totals = ComputeTotals(c.lines, c.svc.cfg.TaxRate, c.svc.cfg.DiscountRate)
	c.state = StateValidating
	return c.totals, nil
}

// Commit persists the bill, its items and the stock decrements as one store
// transaction. Stock is re-validated inside that transaction; a concurrent
// sale that took the stock first aborts this cart with InsufficientStockError
// and nothing persisted. On any failure the cart is aborted and its lines
// discarded; the caller rebuilds to retry.
func (c *Cart) Commit(ctx context.Context) (*domain.Invoice, error) {
	if c.state != StateValidating {
		return nil, fmt.Errorf("commit in state %s: %w", c.state, domain.ErrCartClosed)
	}
	c.state = StateCommitting

	bill := domain.Bill{
		ID:         uuid.NewString(),
		CustomerID: c.customerID,
		BillDate:   time.Now(),
		Subtotal:   c.totals.Subtotal,
		Tax:        c.totals.Tax,
		Discount:   c.totals.Discount,
		Final:      c.totals.Final,
	}
	items := make([]domain.BillItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, domain.BillItem{
			ID:        uuid.NewString(),
			BillID:    bill.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}

	if err := c.svc.store.CreateBill(ctx, bill, items); err != nil {
		c.state = StateAborted
		c.lines = nil
		c.svc.logger.Warn("bill commit aborted",
			zap.String("bill_id", bill.ID),
			zap.Error(err))
		return nil, err
	}
	c.state = StateCommitted

	c.svc.syncCacheAfterCommit(ctx, c.lines)
	c.svc.logger.Info("bill committed",
		zap.String("bill_id", bill.ID),
		zap.Int("items", len(items)),
		zap.String("final", bill.Final.String()))

	return &domain.Invoice{Bill: bill, Items: items}, nil
}

// Abort discards the cart. Safe to call in any state; a committed cart stays
// committed.
func (c *Cart) Abort() {
	if c.state == StateCommitted {
		return
	}
	c.state = StateAborted
	c.lines = nil
}

// GetInvoice loads a committed bill with its items.
func (s *BillingService) GetInvoice(ctx context.Context, billID string) (*domain.Invoice, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if bill == nil {
		return nil, domain.ErrBillNotFound
	}

	items, err := s.store.GetBillItems(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("get bill items: %w", err)
	}
	return &domain.Invoice{Bill: *bill, Items: items}, nil
}

const maxRecentBills = 50

// RecentBills lists summaries newest first. Limit defaults to and is capped
// at 50.
func (s *BillingService) RecentBills(ctx context.Context, limit int) ([]domain.BillSummary, error) {
	if limit <= 0 || limit > maxRecentBills {
		limit = maxRecentBills
	}
	return s.store.ListRecentBills(ctx, limit)
}

// productSnapshot reads cache-first, falling back to the store and populating
// the cache on a miss. Cache errors are logged and degrade to a store read.
func (s *BillingService) productSnapshot(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	if s.cache != nil {
		snapshot, err := s.cache.GetSnapshot(ctx, productID)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.String("product_id", productID), zap.Error(err))
		} else if snapshot != nil {
			return snapshot, nil
		}
	}

	snapshot, err := s.store.GetProductSnapshot(ctx, productID)
	if err != nil || snapshot == nil {
		return snapshot, err
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, *snapshot); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.String("product_id", productID), zap.Error(err))
		}
	}
	return snapshot, nil
}

// syncCacheAfterCommit lowers the advisory cached stock to track the store.
// Best-effort: a failure here only widens the advisory gap until the cache
// entry expires.
func (s *BillingService) syncCacheAfterCommit(ctx context.Context, lines []domain.CartLine) {
	if s.cache == nil {
		return
	}
	for _, line := range lines {
		if err := s.cache.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Warn("cache stock sync failed",
				zap.String("product_id", line.ProductID),
				zap.Error(err))
		}
	}
}
