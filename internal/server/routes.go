package server

import (
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/config"
	"example.com/meal-assistant/backend/internal/handlers"
)

type routeDeps struct {
	cfg           config.Config
	tokenManager  *auth.TokenManager
	auth          *handlers.AuthHandler
	shoppingList  *handlers.ShoppingListHandler
	leftovers     *handlers.LeftoversHandler
	inventory     *handlers.InventoryHandler
	products      *handlers.ProductsHandler
	purchase      *handlers.PurchaseHandler
	chat          *handlers.ChatHandler
	notifications *handlers.NotificationsHandler
	health        *handlers.HealthHandler
}

func registerRoutes(e *echo.Echo, deps routeDeps) {
	e.GET("/healthz", deps.health.Live)
	e.GET("/readyz", deps.health.Ready)

	api := e.Group("/api/v1")

	authGroup := api.Group("/auth", rateLimiter(deps.cfg.Auth.RateLimitPerMinute, deps.cfg.Auth.RateLimitBurst))
	authGroup.POST("/register", deps.auth.Register)
	authGroup.POST("/login", deps.auth.Login)
	authGroup.POST("/refresh", deps.auth.Refresh)
	authGroup.POST("/logout", deps.auth.Logout)

	protected := api.Group("", auth.JWTMiddleware(deps.tokenManager))
	protected.GET("/me", deps.auth.Me)

	chatGroup := protected.Group("/chat", rateLimiter(deps.cfg.Assistant.RateLimitPerMinute, deps.cfg.Assistant.RateLimitBurst))
	chatGroup.POST("", deps.chat.Send)
	chatGroup.GET("/history", deps.chat.History)

	list := protected.Group("/shopping-list")
	list.GET("", deps.shoppingList.List)
	list.POST("/items", deps.shoppingList.Add)
	list.PUT("", deps.shoppingList.Replace)
	list.PUT("/items/:name", deps.shoppingList.Update)
	list.DELETE("/items", deps.shoppingList.Remove)
	list.GET("/export", deps.shoppingList.Export)
	list.POST("/share", deps.shoppingList.Share)

	leftovers := protected.Group("/leftovers")
	leftovers.GET("", deps.leftovers.List)
	leftovers.POST("", deps.leftovers.Create)
	leftovers.PUT("/:id", deps.leftovers.Update)
	leftovers.PATCH("/:id/servings", deps.leftovers.AdjustServings)
	leftovers.DELETE("/:id", deps.leftovers.Delete)

	inventory := protected.Group("/inventory")
	inventory.GET("", deps.inventory.List)
	inventory.PUT("", deps.inventory.Upsert)
	inventory.GET("/:name", deps.inventory.Get)
	inventory.DELETE("/:name", deps.inventory.Delete)

	productsGroup := protected.Group("/products")
	productsGroup.POST("/lookup", deps.products.Lookup)
	productsGroup.GET("/cache", deps.products.CacheList)
	productsGroup.DELETE("/cache/:query", deps.products.CacheDeleteByQuery)
	productsGroup.DELETE("/cache", deps.products.CacheDeleteAll)

	purchaseGroup := protected.Group("/purchase")
	purchaseGroup.POST("/start", deps.purchase.Start)
	purchaseGroup.GET("", deps.purchase.State)
	purchaseGroup.PUT("/quantity", deps.purchase.UpdateQuantity)
	purchaseGroup.POST("/panel/toggle", deps.purchase.TogglePanel)
	purchaseGroup.POST("/payment/open", deps.purchase.OpenPayment)
	purchaseGroup.POST("/payment/close", deps.purchase.ClosePayment)
	purchaseGroup.POST("/payment/complete", deps.purchase.Complete)
	purchaseGroup.POST("/cancel", deps.purchase.Cancel)

	protected.GET("/events", deps.notifications.Stream)
}
