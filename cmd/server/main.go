package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	red "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kyberwheel/backend/internal/ai"
	"github.com/kyberwheel/backend/internal/config"
	"github.com/kyberwheel/backend/internal/db"
	"github.com/kyberwheel/backend/internal/goroutine"
	httpHandlers "github.com/kyberwheel/backend/internal/http/handlers"
	httpRouter "github.com/kyberwheel/backend/internal/http/router"
	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/repository"
	redisrepo "github.com/kyberwheel/backend/internal/repository/redis"
	"github.com/kyberwheel/backend/internal/service"
	"github.com/kyberwheel/backend/internal/sms"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsProduction())
	for _, warning := range cfg.Warnings {
		logger.Log.Warn(warning)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolOptions)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	applied, err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath)
	if err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}
	if len(applied) > 0 {
		logger.Log.WithField("migrations", applied).Info("main: миграции применены")
	}

	checks := map[string]httpHandlers.Pinger{"database": dbConn}

	// Хранилище одноразовых кодов.
	var otpStore service.OTPStore
	switch cfg.OTPStore {
	case config.OTPStoreRedis:
		redisClient := red.NewClient(&red.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Fatalf("main: redis недоступен: %v", err)
		}
		otpStore = redisrepo.NewOTPStore(redisClient, "")
		checks["redis"] = httpHandlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	case config.OTPStoreMemory:
		otpStore = repository.NewMemoryOTPStore()
	default:
		otpStore = repository.NewOTPRepository(dbConn)
	}

	// Отправка SMS.
	var sender sms.Sender
	switch cfg.SMSProvider {
	case config.SMSProviderLog:
		sender = sms.NewLogSender(logger.Log)
	default:
		opts := []sms.Option{sms.WithSign(cfg.SMSAeroSign)}
		if cfg.SMSAeroBaseURL != "" {
			opts = append(opts, sms.WithBaseURL(cfg.SMSAeroBaseURL))
		}
		sender = sms.NewClient(cfg.SMSAeroEmail, cfg.SMSAeroAPIKey, opts...)
	}

	// Репозитории и сервисы.
	userRepo := repository.NewUserRepository(dbConn)
	chatRepo := repository.NewChatHistoryRepository(dbConn)

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authService := service.NewAuthService(userRepo, otpStore, sender, tokenManager)
	authService.WithOTPTTL(cfg.OTPTTL)

	background := goroutine.NewRecoveryHandler(logger.Log)

	// Фоновая очистка истёкших кодов дополняет очистку при отправке.
	if cfg.OTPPurgeInterval > 0 {
		background.Every(ctx, cfg.OTPPurgeInterval, func(ctx context.Context) {
			if _, err := authService.PurgeExpiredOTP(ctx); err != nil {
				logger.Log.WithError(err).Warn("main: фоновая очистка кодов не удалась")
			}
		})
	}

	chatService := service.NewChatHistoryService(chatRepo)
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	assistantService := service.NewAssistantService(aiClient, chatRepo)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		httpHandlers.NewAuthHandler(authService),
		httpHandlers.NewChatHistoryHandler(chatService),
		httpHandlers.NewAIChatHandler(assistantService),
		httpHandlers.NewHealthHandler(checks),
		tokenManager,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	background.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	logger.Log.WithFields(logrus.Fields{
		"port":      cfg.HTTPPort,
		"env":       cfg.Env,
		"otp_store": cfg.OTPStore,
		"sms":       cfg.SMSProvider,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
