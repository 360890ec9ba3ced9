package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilarsid/order-service/internal/analytics"
	"github.com/nikhilarsid/order-service/internal/cart"
	"github.com/nikhilarsid/order-service/internal/catalog"
	"github.com/nikhilarsid/order-service/internal/checkout"
	"github.com/nikhilarsid/order-service/internal/config"
	"github.com/nikhilarsid/order-service/internal/db"
	"github.com/nikhilarsid/order-service/internal/events"
	httpapi "github.com/nikhilarsid/order-service/internal/http"
	"github.com/nikhilarsid/order-service/internal/order"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[order-service] ", log.LstdFlags|log.Lshortfile)

	if cfg.DatabaseDSN == "" {
		logger.Fatal("ORDER_DB_DSN not set")
	}

	// DB
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer pool.Close()

	cartRepo := cart.NewRepository(pool)
	orderRepo := order.NewRepository(pool)
	analyticsRepo := analytics.NewRepository(pool)

	// Catalog
	catalogClient, err := catalog.NewClient(cfg.ProductServiceURL, &http.Client{Timeout: cfg.UpstreamTimeout}, logger)
	if err != nil {
		logger.Fatalf("catalog client: %v", err)
	}

	// Cart cache (optional)
	var cartCache cart.Cache
	if cfg.RedisAddr != "" {
		cartCache = cart.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logger.Printf("cart cache enabled at %s", cfg.RedisAddr)
	}

	cartSvc := cart.NewService(cartRepo, catalogClient, cartCache, logger)

	// Events (optional)
	var publisher checkout.Publisher
	if cfg.RabbitURL != "" {
		conn := events.MustDial(cfg.RabbitURL)
		defer conn.Close()
		p, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatalf("event publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	checkoutSvc := checkout.NewService(cartSvc, orderRepo, catalogClient, analyticsRepo, publisher, logger)

	// HTTP
	router := httpapi.NewRouter(
		httpapi.NewCartHandler(cartSvc),
		httpapi.NewOrderHandler(checkoutSvc),
		httpapi.NewAnalyticsHandler(analyticsRepo),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Printf("order-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
