package router

import (
	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/config"
	"github.com/intshop/intshop-backend/internal/app/controller"
	"github.com/intshop/intshop-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	discountController *controller.DiscountController
	orderController    *controller.OrderController
	paymentController  *controller.PaymentController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	discountController *controller.DiscountController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		discountController: discountController,
		orderController:    orderController,
		paymentController:  paymentController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	router.Use(middleware.SessionMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "INTSHOP API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.DELETE("/:productID", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)

			cart.POST("/coupon", r.discountController.ApplyCoupon)
			cart.DELETE("/coupon", r.discountController.CancelCoupon)
			cart.POST("/gift-card", r.authMiddleware.Authenticate(), r.discountController.ApplyGiftCard)
			cart.DELETE("/gift-card", r.discountController.CancelGiftCard)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("", r.orderController.CreateOrder)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/checkout", r.authMiddleware.Authenticate(), r.paymentController.CreateCheckoutSession)
			payments.POST("/webhook", r.paymentController.HandleWebhook)
			payments.GET("/success", r.paymentController.PaymentSuccess)
			payments.GET("/cancel", r.paymentController.PaymentCancel)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, Stripe-Signature")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
