package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tejasmadane2310/billing-ledger/internal/adapter/handler"
	"github.com/tejasmadane2310/billing-ledger/internal/adapter/storage"
	"github.com/tejasmadane2310/billing-ledger/internal/core/service"
)

const (
	defaultHTTPAddr  = ":8080"
	defaultMySQLDSN  = "root:root@tcp(localhost:3306)/billing?parseTime=true"
	defaultRedisAddr = "localhost:6379"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", getenv("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis (advisory snapshot cache)
	rdb := redis.NewClient(&redis.Options{
		Addr:     getenv("REDIS_ADDR", defaultRedisAddr),
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	cfg := loadBillingConfig(logger)
	billingService := service.NewBillingService(mysqlAdapter, redisAdapter, cfg, logger)
	catalogService := service.NewCatalogService(mysqlAdapter, redisAdapter, logger)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(billingService, catalogService, logger)
	httpHandler.Register(mux)

	httpAddr := getenv("HTTP_ADDR", defaultHTTPAddr)
	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}

// loadBillingConfig starts from the documented defaults (tax 18%, discount
// 10%) and applies TAX_RATE / DISCOUNT_RATE overrides, given as decimal
// fractions such as "0.18".
func loadBillingConfig(logger *zap.Logger) service.Config {
	cfg := service.DefaultConfig()

	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			logger.Fatal("invalid TAX_RATE", zap.String("value", v), zap.Error(err))
		}
		cfg.TaxRate = rate
	}
	if v := os.Getenv("DISCOUNT_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			logger.Fatal("invalid DISCOUNT_RATE", zap.String("value", v), zap.Error(err))
		}
		cfg.DiscountRate = rate
	}

	logger.Info("billing config",
		zap.String("tax_rate", cfg.TaxRate.String()),
		zap.String("discount_rate", cfg.DiscountRate.String()))
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
