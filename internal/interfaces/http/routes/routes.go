// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/domain/user"
	"github.com/your-org/template-marketplace/internal/interfaces/http/handlers"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
	"github.com/your-org/template-marketplace/internal/pkg/notify"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes with their shared services
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, notifier notify.Sink, cfg *config.Config) {
	log := newServiceLogger(cfg)

	templateService := template.NewService(db, redisClient, cfg)
	userService := user.NewService(db, cfg)
	cartManager := cart.NewManager(cart.NewGormRepository(db), templateService, notifier, log)
	purchaseService := purchase.NewService(db, notifier, log)

	setupAuthRoutes(rg, db, cartManager, cfg)
	setupTemplateRoutes(rg, templateService, cfg)
	setupCartRoutes(rg, cartManager, cfg)
	setupCheckoutRoutes(rg, purchaseService, userService, cartManager, cfg)
}

func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cartManager *cart.Manager, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cartManager, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

func setupTemplateRoutes(rg *gin.RouterGroup, templateService *template.Service, cfg *config.Config) {
	templateHandler := handlers.NewTemplateHandler(templateService, cfg)

	templates := rg.Group("/templates")
	{
		templates.GET("", templateHandler.GetTemplates)
		templates.GET("/:id", templateHandler.GetTemplate)
		templates.GET("/slug/:slug", templateHandler.GetTemplateBySlug)
		templates.GET("/:id/reviews", templateHandler.GetReviews)

		protected := templates.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/:id/reviews", templateHandler.CreateReview)
		}
	}

	admin := rg.Group("/admin/templates")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("", templateHandler.CreateTemplate)
	}
}

func setupCartRoutes(rg *gin.RouterGroup, cartManager *cart.Manager, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(cartManager, cfg)

	// Optional auth: guests get an empty cart on reads; mutations are
	// rejected by the store with a distinct not-authenticated signal
	carts := rg.Group("/cart")
	carts.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		carts.GET("", cartHandler.GetCart)
		carts.GET("/count", cartHandler.GetCartCount)
		carts.DELETE("", cartHandler.ClearCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items/:id", cartHandler.UpdateCartItem)
		carts.DELETE("/items/:id", cartHandler.RemoveCartItem)
		carts.POST("/promo", cartHandler.ApplyPromo)
		carts.DELETE("/promo", cartHandler.RemovePromo)
	}
}

func setupCheckoutRoutes(rg *gin.RouterGroup, purchaseService *purchase.Service, userService *user.Service, cartManager *cart.Manager, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(purchaseService, cartManager, cfg)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, userService, cfg)

	protected := rg.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/checkout", checkoutHandler.Checkout)
		protected.GET("/purchases", purchaseHandler.GetPurchases)
		protected.GET("/purchases/:id", purchaseHandler.GetPurchase)
		protected.GET("/purchases/:id/receipt", purchaseHandler.GetReceipt)
	}
}

func newServiceLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
