package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/spendlog/spendlog/internal/accounts"
	"github.com/spendlog/spendlog/internal/api"
	"github.com/spendlog/spendlog/internal/db"
	"github.com/spendlog/spendlog/internal/ledger"
	mongorepo "github.com/spendlog/spendlog/internal/repo/mongo"
	"github.com/spendlog/spendlog/internal/session"
	"github.com/spendlog/spendlog/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger := utils.MustNewLogger(cfg.Logging)
	defer logger.Sync()

	ctx := context.Background()

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("mongo: failed to connect", zap.Error(err))
	}
	defer func() {
		if err := mongoStore.Close(context.Background()); err != nil {
			logger.Warn("mongo: close error", zap.Error(err))
		}
	}()

	if err := mongoStore.EnsureCollections(ctx); err != nil {
		logger.Fatal("mongo: ensure collections", zap.Error(err))
	}

	var sessionStore session.Store
	if cfg.Redis.Addr != "" {
		redisClient, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Fatal("redis: failed to connect", zap.Error(err))
		}
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient)
	} else {
		logger.Warn("REDIS_ADDR not set, sessions will not survive restarts")
		sessionStore = session.NewMemoryStore()
	}

	sessions := session.NewManager(sessionStore, cfg.Session.TTL)

	accountsSvc := accounts.NewService(mongorepo.NewUsersRepo(mongoStore.Users))

	var ledgerOpts []ledger.Option
	if cfg.Ledger.EnforceOwner {
		ledgerOpts = append(ledgerOpts, ledger.WithOwnerEnforcement())
	}
	ledgerSvc := ledger.NewService(mongorepo.NewExpensesRepo(mongoStore.Expenses), ledgerOpts...)

	router := setupRouter(accountsSvc, ledgerSvc, sessions, cfg, logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

func setupRouter(accountsSvc *accounts.Service, ledgerSvc *ledger.Service, sessions *session.Manager, cfg *utils.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler := api.NewHandler(accountsSvc, ledgerSvc, sessions, cfg.Session.CookieName, cfg.Session.SecureCookie, logger)
	handler.RegisterRoutes(router)

	return router
}
