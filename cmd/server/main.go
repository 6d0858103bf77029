package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/intshop/intshop-backend/config"
	"github.com/intshop/intshop-backend/internal/app/controller"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/internal/app/service"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/intshop/intshop-backend/internal/middleware"
	"github.com/intshop/intshop-backend/internal/router"
	"github.com/intshop/intshop-backend/internal/scheduler"
	"github.com/intshop/intshop-backend/pkg/kv"
	"github.com/intshop/intshop-backend/pkg/logger"
	"github.com/intshop/intshop-backend/pkg/payment/stripe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting INTSHOP Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize session store
	sessionStore, err := kv.NewRedisStore(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to session store", err)
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			logger.Error("Failed to close session store", err)
		}
	}()

	// Initialize payment gateway client
	gatewayConfig := stripe.Config{
		SecretKey:     cfg.Payment.Stripe.SecretKey,
		WebhookSecret: cfg.Payment.Stripe.WebhookSecret,
		BaseURL:       cfg.Payment.Stripe.BaseURL,
		Currency:      cfg.Payment.Stripe.Currency,
		SuccessURL:    cfg.Payment.Stripe.SuccessURL,
		CancelURL:     cfg.Payment.Stripe.CancelURL,
	}
	gateway, err := stripe.NewClient(gatewayConfig)
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway client", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	couponRepo := repository.NewCouponRepository(db.GetDB())
	giftCardRepo := repository.NewGiftCardRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(sessionStore, cfg.Cart.SessionTTL)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	notificationService := service.NewNotificationService(service.NewSMTPMailer(&cfg.SMTP))
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	discountService := service.NewDiscountService(cartRepo, couponRepo, giftCardRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, discountService, notificationService, db.GetDB())
	checkoutService := service.NewCheckoutService(orderRepo, discountService, notificationService, gateway, gatewayConfig)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, discountService)
	discountController := controller.NewDiscountController(discountService)
	orderController := controller.NewOrderController(orderService)
	paymentController := controller.NewPaymentController(checkoutService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the gift card hold sweep
	giftCardScheduler := scheduler.NewGiftCardScheduler(giftCardRepo)
	if err := giftCardScheduler.Start(); err != nil {
		logger.Fatal("Failed to start gift card scheduler", err)
	}
	defer giftCardScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		discountController,
		orderController,
		paymentController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
