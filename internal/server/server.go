package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/meal-assistant/backend/internal/assistant"
	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/config"
	"example.com/meal-assistant/backend/internal/handlers"
	"example.com/meal-assistant/backend/internal/notifications"
	"example.com/meal-assistant/backend/internal/products"
	"example.com/meal-assistant/backend/internal/purchase"
	"example.com/meal-assistant/backend/internal/repository"
	"example.com/meal-assistant/backend/internal/sharelink"
)

// Server — HTTP-сервер приложения.
type Server struct {
	echo   *echo.Echo
	cfg    config.Config
	logger *slog.Logger
}

// New собирает сервер со всеми зависимостями.
func New(cfg config.Config, db *pgxpool.Pool, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORS())

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTIssuer,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	users := repository.NewUserRepository(db)
	refreshTokens := repository.NewRefreshTokenRepository(db)
	shoppingList := repository.NewShoppingListRepository(db)
	leftovers := repository.NewLeftoverRepository(db)
	inventory := repository.NewInventoryRepository(db)
	productCache := repository.NewProductCacheRepository(db)
	chatLog := repository.NewChatLogRepository(db)

	hub := notifications.NewHub()
	searchClient := products.NewRapidAPIClient(cfg.Products)
	resolver := products.NewResolver(searchClient, productCache, cfg.Products.DefaultCountry, logger)
	assistantClient := assistant.NewHTTPClient(cfg.Assistant)
	shareClient := sharelink.NewHTTPClient(cfg.Share)
	purchaseStore := purchase.NewStore()
	detector := purchase.NewKeywordDetector()

	authHandler := handlers.NewAuthHandler(users, refreshTokens, tokenManager, logger)
	shoppingListHandler := handlers.NewShoppingListHandler(shoppingList, hub, shareClient, logger)
	leftoversHandler := handlers.NewLeftoversHandler(leftovers, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventory, logger)
	productsHandler := handlers.NewProductsHandler(resolver, productCache, shoppingList, logger)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseStore, shoppingList, resolver, hub, logger)
	chatHandler := handlers.NewChatHandler(
		assistantClient, chatLog, detector, purchaseHandler, hub,
		cfg.Assistant.HistoryLimit, logger,
	)
	notificationsHandler := handlers.NewNotificationsHandler(hub, logger)
	healthHandler := handlers.NewHealthHandler(db)

	registerRoutes(e, routeDeps{
		cfg:           cfg,
		tokenManager:  tokenManager,
		auth:          authHandler,
		shoppingList:  shoppingListHandler,
		leftovers:     leftoversHandler,
		inventory:     inventoryHandler,
		products:      productsHandler,
		purchase:      purchaseHandler,
		chat:          chatHandler,
		notifications: notificationsHandler,
		health:        healthHandler,
	})

	return &Server{echo: e, cfg: cfg, logger: logger}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.echo.Server.ReadTimeout = s.cfg.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.cfg.Server.IdleTimeout

	s.logger.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
				logger.Error("request", attrs...)
				return nil
			}

			logger.Info("request", attrs...)
			return nil
		},
	})
}

func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60.0),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "rate limit lookup failed")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}
