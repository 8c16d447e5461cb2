// Package main wires the wallet ledger service: platform stores, the
// configuration cache, the tenant connection router and the HTTP surface.
// All collaborators are constructed here and injected explicitly.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamepay/internal/config"
	"gamepay/internal/events"
	"gamepay/internal/handlers"
	"gamepay/internal/middleware"
	"gamepay/internal/models"
	"gamepay/internal/repositories"
	"gamepay/internal/repositories/cache"
	"gamepay/internal/routes"
	"gamepay/internal/services/ledger"
	"gamepay/internal/services/seamless"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if config.IsProduction() {
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetLevel(logrus.DebugLevel)
	}

	platformDB, err := openPlatformDB()
	if err != nil {
		log.WithError(err).Fatal("platform database unavailable")
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	redisStore := cache.NewRedisStore(redisClient)

	operatorRepo := repositories.NewOperatorRepository(platformDB)
	cacheService := cache.NewCacheService(redisStore, operatorRepo,
		config.GetDurationEnv("CACHE_TTL", 5*time.Minute))

	sink := events.NewAsyncSink(
		events.NewLogSink(log),
		config.GetIntEnv("EVENT_QUEUE_SIZE", 1024),
		config.GetDurationEnv("EVENT_RETRY_DELAY", 100*time.Millisecond),
		uint(config.GetIntEnv("EVENT_RETRIES", 3)),
	)
	defer sink.Close()

	dbManager := repositories.NewDbManager(cacheService, config.LoadPoolConfig(), log)
	defer dbManager.Close()

	seamlessCfg := config.LoadSeamlessConfig()
	deps := ledger.Deps{
		Config: cacheService,
		Stores: dbManager,
		Remote: func(setting models.SeamlessSetting) ledger.RemoteWallet {
			return seamless.NewClient(setting, seamlessCfg, sink)
		},
		Sink:    sink,
		Metrics: ledger.NoopMetricsCollector{},
	}

	app := fiber.New(fiber.Config{
		AppName:      "gamepay",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 15*time.Second),
	})
	app.Use(recover.New())
	app.Use(cors.New())

	routes.SetupRoutes(app, routes.Handlers{
		Wallet: handlers.NewWalletHandler(deps),
		Admin:  handlers.NewAdminHandler(cacheService),
		Health: handlers.NewHealthHandler(platformDB, redisStore),
	},
		middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", "")),
		middleware.NewOperatorAuth(cacheService),
	)

	go func() {
		addr := ":" + config.GetEnv("PORT", "8080")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()
	log.WithField("port", config.GetEnv("PORT", "8080")).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}

// openPlatformDB connects to the platform database holding operator and
// vendor documents, and provisions their tables.
func openPlatformDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", ""),
		config.GetEnv("DB_NAME", "gamepay"),
		config.GetEnv("DB_SSLMODE", "disable"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&repositories.OperatorDocument{}, &repositories.VendorDocument{}); err != nil {
		return nil, err
	}
	return db, nil
}
