package tests

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tejasmadane2310/billing-ledger/internal/adapter/storage"
	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
	"github.com/tejasmadane2310/billing-ledger/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	db      *storage.MySQLAdapter
	billing *service.BillingService
	catalog *service.CatalogService
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/billing?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	cache := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)

	return &testEnv{
		redis:   rdb,
		mysql:   db,
		cache:   cache,
		db:      mysqlAdapter,
		billing: service.NewBillingService(mysqlAdapter, cache, service.DefaultConfig(), nil),
		catalog: service.NewCatalogService(mysqlAdapter, cache, nil),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func TestIntegration_FullCheckoutFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()

	phone := "itg-" + uuid.NewString()[:8]
	customer, err := env.catalog.AddCustomer(ctx, "Integration Customer", phone, "")
	if err != nil {
		t.Fatalf("add customer failed: %v", err)
	}

	product, err := env.catalog.AddProduct(ctx, "integration item", "149.50", "", 10)
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}

	cart, err := env.billing.NewCart(ctx, phone)
	if err != nil {
		t.Fatalf("new cart failed: %v", err)
	}
	if err := cart.AddLine(ctx, product.ID, 2); err != nil {
		t.Fatalf("add line failed: %v", err)
	}

	totals, err := cart.Finalize()
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if totals.Final.String() != "322.92" {
		t.Errorf("expected final 322.92, got %s", totals.Final)
	}

	invoice, err := cart.Commit(ctx)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if invoice.Bill.CustomerID != customer.ID {
		t.Errorf("expected customer %s on bill, got %q", customer.ID, invoice.Bill.CustomerID)
	}

	// The committed invoice is reproducible from what was stored.
	reloaded, err := env.billing.GetInvoice(ctx, invoice.Bill.ID)
	if err != nil {
		t.Fatalf("get invoice failed: %v", err)
	}
	if !reloaded.Bill.Final.Equal(invoice.Bill.Final) {
		t.Errorf("stored final %s != returned final %s", reloaded.Bill.Final, invoice.Bill.Final)
	}
	sum := domain.ZeroMoney()
	for _, item := range reloaded.Items {
		sum = sum.Add(item.LineTotal)
	}
	if !sum.Equal(reloaded.Bill.Subtotal) {
		t.Errorf("item totals %s != subtotal %s", sum, reloaded.Bill.Subtotal)
	}

	snap, err := env.db.GetProductSnapshot(ctx, product.ID)
	if err != nil || snap == nil {
		t.Fatalf("get snapshot failed: %v", err)
	}
	if snap.Stock != 8 {
		t.Errorf("expected stock 8, got %d", snap.Stock)
	}

	summaries, err := env.billing.RecentBills(ctx, 10)
	if err != nil {
		t.Fatalf("recent bills failed: %v", err)
	}
	found := false
	for _, s := range summaries {
		if s.BillID == invoice.Bill.ID {
			found = true
			if s.CustomerName != "Integration Customer" {
				t.Errorf("expected customer name on summary, got %q", s.CustomerName)
			}
		}
	}
	if !found {
		t.Error("committed bill missing from recent listing")
	}
}

func TestIntegration_WalkInSale(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	product, err := env.catalog.AddProduct(ctx, "walk-in item", "10.00", "", 5)
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}

	cart, err := env.billing.NewCart(ctx, "")
	if err != nil {
		t.Fatalf("new cart failed: %v", err)
	}
	cart.AddLine(ctx, product.ID, 1)
	cart.Finalize()
	invoice, err := cart.Commit(ctx)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	stored, err := env.db.GetBill(ctx, invoice.Bill.ID)
	if err != nil || stored == nil {
		t.Fatalf("get bill failed: %v", err)
	}
	if stored.CustomerID != "" {
		t.Errorf("expected NULL customer on walk-in bill, got %q", stored.CustomerID)
	}
}

func TestIntegration_ConcurrentLastUnits(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialStock := 5
	totalRequests := 15

	product, err := env.catalog.AddProduct(ctx, "contended item", "10.00", "", initialStock)
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}

	var successCount, stockFailCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cart, err := env.billing.NewCart(ctx, "")
			if err != nil {
				t.Errorf("new cart failed: %v", err)
				return
			}
			if err := cart.AddLine(ctx, product.ID, 1); err != nil {
				recordStockFailure(t, err, &stockFailCount)
				return
			}
			if _, err := cart.Finalize(); err != nil {
				t.Errorf("finalize failed: %v", err)
				return
			}
			if _, err := cart.Commit(ctx); err != nil {
				recordStockFailure(t, err, &stockFailCount)
				return
			}
			successCount.Add(1)
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successful checkouts, got %d", initialStock, successCount.Load())
	}

	snap, err := env.db.GetProductSnapshot(ctx, product.ID)
	if err != nil || snap == nil {
		t.Fatalf("get snapshot failed: %v", err)
	}
	if snap.Stock != 0 {
		t.Errorf("expected stock 0, got %d", snap.Stock)
	}
	if snap.Stock < 0 {
		t.Error("stock must never go negative")
	}

	var billCount int
	env.mysql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bill_items WHERE product_id = ?`, product.ID).Scan(&billCount)
	if billCount != initialStock {
		t.Errorf("expected %d bill items, got %d", initialStock, billCount)
	}
}

func TestIntegration_StockOverrideInvalidatesCache(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	product, err := env.catalog.AddProduct(ctx, "restocked item", "10.00", "", 1)
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}

	// Warm the cache through an advisory read.
	cart, _ := env.billing.NewCart(ctx, "")
	if err := cart.AddLine(ctx, product.ID, 1); err != nil {
		t.Fatalf("add line failed: %v", err)
	}
	cart.Abort()

	if err := env.catalog.SetStock(ctx, product.ID, 20); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}

	// A fresh cart must see the new stock, not the stale cached value.
	cart2, _ := env.billing.NewCart(ctx, "")
	if err := cart2.AddLine(ctx, product.ID, 20); err != nil {
		t.Fatalf("expected restocked quantity to be sellable: %v", err)
	}
	cart2.Abort()
}

func recordStockFailure(t *testing.T, err error, count *atomic.Int32) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		count.Add(1)
		return
	}
	t.Errorf("unexpected failure: %v", err)
}
