package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tejasmadane2310/billing-ledger/internal/adapter/storage"
	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
	"github.com/tejasmadane2310/billing-ledger/internal/core/service"
)

// Contention exerciser: seeds a product with limited stock, fires concurrent
// one-unit checkouts at it, and checks that exactly stock-many commits win.
const (
	initialStock  = 20
	totalRequests = 50
	productPrice  = "149.50"
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/billing?parseTime=true"))
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: getenv("REDIS_ADDR", "localhost:6379")})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	billing := service.NewBillingService(mysqlAdapter, redisAdapter, service.DefaultConfig(), zap.NewNop())

	// Seed a fresh product so runs don't interfere with each other.
	product := domain.Product{
		ID:        "loadgen-" + uuid.NewString(),
		Name:      "loadgen item",
		Price:     domain.MustMoney(productPrice),
		CreatedAt: time.Now(),
	}
	if err := mysqlAdapter.CreateProduct(ctx, product, initialStock); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	var successCount, stockFailCount, otherFailCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cart, err := billing.NewCart(ctx, "")
			if err != nil {
				otherFailCount.Add(1)
				return
			}
			if err := cart.AddLine(ctx, product.ID, 1); err != nil {
				recordFailure(err, &stockFailCount, &otherFailCount)
				return
			}
			if _, err := cart.Finalize(); err != nil {
				otherFailCount.Add(1)
				return
			}
			if _, err := cart.Commit(ctx); err != nil {
				recordFailure(err, &stockFailCount, &otherFailCount)
				return
			}
			successCount.Add(1)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	stockFail := stockFailCount.Load()
	otherFail := otherFailCount.Load()

	fmt.Println("========== LOAD RESULTS ==========")
	fmt.Printf("Initial Stock:      %d\n", initialStock)
	fmt.Printf("Total Requests:     %d\n", totalRequests)
	fmt.Printf("Committed:          %d\n", success)
	fmt.Printf("InsufficientStock:  %d\n", stockFail)
	fmt.Printf("Other failures:     %d\n", otherFail)
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Println("==================================")

	if success == initialStock && otherFail == 0 {
		fmt.Printf("PASS: exactly %d checkouts committed\n", initialStock)
	} else {
		fmt.Printf("FAIL: expected %d commits and no other failures\n", initialStock)
	}

	snapshot, err := mysqlAdapter.GetProductSnapshot(ctx, product.ID)
	if err != nil || snapshot == nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", snapshot.Stock)
	if snapshot.Stock == 0 {
		fmt.Println("PASS: stock depleted to 0")
	} else {
		fmt.Printf("FAIL: expected stock 0, got %d\n", snapshot.Stock)
	}
}

func recordFailure(err error, stockFail, otherFail *atomic.Int32) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		stockFail.Add(1)
	} else {
		otherFail.Add(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
