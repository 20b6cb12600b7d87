package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcheckout "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cartstore"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/gateway"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	// Cart collaborator: Redis when configured, in-memory otherwise
	var carts checkout.CartStore
	if cfg.Redis.Enabled {
		store, err := cartstore.NewRedisStore(cartstore.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer store.Close()
		carts = store
		log.Info("Cart store ready", zap.String("backend", "redis"))
	} else {
		carts = cartstore.NewMemoryStore()
		log.Info("Cart store ready", zap.String("backend", "memory"))
	}

	// Commerce gateway clients
	gatewayConfig := gateway.NewConfig(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)
	gatewayConfig.TimeoutSeconds = cfg.Gateway.TimeoutSeconds
	coupons, err := gateway.NewCouponClient(gatewayConfig)
	if err != nil {
		log.Fatal("Failed to configure coupon gateway", zap.Error(err))
	}
	orders, err := gateway.NewOrderClient(gatewayConfig)
	if err != nil {
		log.Fatal("Failed to configure order gateway", zap.Error(err))
	}

	pricing := checkout.Pricing{
		FreeShippingMin:      decimal.NewFromFloat(cfg.Checkout.FreeShippingMin),
		StandardShippingCost: decimal.NewFromFloat(cfg.Checkout.StandardShippingCost),
		TaxRate:              decimal.NewFromFloat(cfg.Checkout.TaxRate),
	}
	sessions := appcheckout.NewSessionManager(pricing)
	service := appcheckout.NewService(sessions, coupons, orders, carts, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP surface
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.AuthSignal(jwtService))

	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(cfg.App.Name, version))
	r.Register(handler.NewCheckoutHandler(service))
	r.Register(handler.NewCartHandler(service))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
