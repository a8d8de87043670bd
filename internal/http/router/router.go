package router

import (
	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/config"
	"github.com/kyberwheel/backend/internal/http/handlers"
	"github.com/kyberwheel/backend/internal/http/middleware"
)

// SetupRouter собирает gin.Engine со всеми маршрутами сервиса.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	chatHistoryHandler *handlers.ChatHistoryHandler,
	aiChatHandler *handlers.AIChatHandler,
	healthHandler *handlers.HealthHandler,
	tokens middleware.TokenVerifier,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/session", authHandler.Session)
		authGroup.POST("/otp/send", authHandler.SendOTP)
		authGroup.POST("/otp/verify", authHandler.VerifyOTP)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/chat-history", chatHistoryHandler.List)
		protected.POST("/chat-history", chatHistoryHandler.Create)
		protected.DELETE("/chat-history/:id", middleware.HexIDValidator("id"), chatHistoryHandler.Delete)

		protected.POST("/ai/chat", aiChatHandler.Chat)
	}

	return r
}
