package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "betledger/docs"
	"betledger/internal/config"
	cronrunner "betledger/internal/cron"
	"betledger/internal/db"
	"betledger/internal/handler"
	"betledger/internal/ledger"
	"betledger/internal/logger"
	"betledger/internal/payout"
	gormrepository "betledger/internal/repository/gorm"
	"betledger/internal/resultsource"
	"betledger/internal/service"
)

func main() {
	cfgPath := os.Getenv("BL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BL_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chain, err := ledger.NewEVM(ctx, cfg.Ledger)
	if err != nil {
		logger.Fatal("ledger dial failed", zap.Error(err))
	}

	resultsHTTP := &http.Client{Timeout: cfg.ResultSource.Timeout}
	results := resultsource.NewClient(resultsHTTP, cfg.ResultSource.BaseURL)

	store := gormrepository.New(dbConn.Gorm)

	calc := payout.Calculator{
		MinOdds: mustDecimal(cfg.Betting.MinOdds, logger, "betting.min_odds"),
		MaxOdds: mustDecimal(cfg.Betting.MaxOdds, logger, "betting.max_odds"),
	}

	matchSvc := &service.MatchService{Repo: store, Ledger: chain, Calc: calc, Logger: logger}
	betSvc := &service.BetService{
		Repo:   store,
		Ledger: chain,
		Calc:   calc,
		MinBet: mustDecimal(cfg.Betting.MinBet, logger, "betting.min_bet"),
		MaxBet: mustDecimal(cfg.Betting.MaxBet, logger, "betting.max_bet"),
		Logger: logger,
	}
	settlementSvc := &service.SettlementService{Repo: store, Ledger: chain, Stats: store, Logger: logger}
	claimSvc := &service.ClaimService{Repo: store, Ledger: chain, Logger: logger}
	reconcileSvc := &service.ReconcileService{Repo: store, Ledger: chain, Logger: logger}
	detectorSvc := &service.DetectorService{
		Repo:       store,
		Results:    results,
		Settlement: settlementSvc,
		Cfg:        cfg.Detector,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	matchHandler := &handler.MatchHandler{Matches: matchSvc, Settlement: settlementSvc}
	matchHandler.Register(engine)
	betHandler := &handler.BetHandler{Bets: betSvc, Claim: claimSvc}
	betHandler.Register(engine)
	adminHandler := &handler.AdminHandler{Reconcile: reconcileSvc, Repo: store}
	adminHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.DetectorSweep, func(ctx context.Context) {
			if err := detectorSvc.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("detector sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register detector sweep failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.Reconcile, func(ctx context.Context) {
			reports, err := reconcileSvc.RunOnce(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn("cron reconcile failed", zap.Error(err))
				}
				return
			}
			for _, r := range reports {
				logger.Info("cron reconcile ok",
					zap.String("scope", r.Scope),
					zap.Int("processed", r.Processed),
					zap.Int("created", r.Created),
					zap.Int("updated", r.Updated),
					zap.Int("errored", r.Errored),
				)
			}
		})
		if err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func mustDecimal(raw string, logger *zap.Logger, key string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		logger.Fatal("invalid decimal config value", zap.String("key", key), zap.Error(err))
	}
	return v
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
