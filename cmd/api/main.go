package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carecall-backend/internal/calls"
	"carecall-backend/internal/config"
	"carecall-backend/internal/emergency"
	"carecall-backend/internal/httpapi"
	"carecall-backend/internal/telephony"
	"carecall-backend/pkg/logger"
	"carecall-backend/pkg/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// SMS fallback channel; a logging sender stands in when no region is set.
	var smsSender telephony.SMSSender = telephony.LogSMSSender{Log: log}
	if cfg.SMS.AWSRegion != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(rootCtx, awsconfig.WithRegion(cfg.SMS.AWSRegion))
		if err != nil {
			log.Error("aws config init failed", "err", err)
			os.Exit(1)
		}
		smsSender = telephony.NewSNSSender(sns.NewFromConfig(awsCfg))
	}
	if !cfg.Exotel.Configured() {
		log.Warn("exotel not configured; voice calls will fall back where the flow allows")
	}

	dialer := &telephony.ExotelDialer{
		AccountSID: cfg.Exotel.AccountSID,
		APIKey:     cfg.Exotel.APIKey,
		APIToken:   cfg.Exotel.APIToken,
		CallerID:   cfg.Exotel.ExoPhone,
		APIBase:    cfg.Exotel.APIBase,
		HTTPClient: &http.Client{Timeout: cfg.Calls.DialTimeout},
	}

	callStore := calls.NewPostgresStore(db)
	callSlots := &utils.RedisCallSlots{Client: rdb, Limit: cfg.Calls.MaxActivePerUser}
	initiator := &calls.Initiator{
		Store:   callStore,
		Dialer:  dialer,
		SMS:     smsSender,
		Slots:   callSlots,
		BaseURL: cfg.App.BaseURL,
	}
	callHandlers := calls.Handlers{
		Store:      callStore,
		Initiator:  initiator,
		Reconciler: &calls.Reconciler{Store: callStore, Slots: callSlots},
	}

	emergencyHandlers := emergency.Handlers{Service: &emergency.Service{
		Events:    emergency.NewPostgresStore(db),
		Initiator: initiator,
		SMS:       smsSender,
		Redis:     rdb,
	}}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.CORS())

	registerRoutes(r, callHandlers, emergencyHandlers)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
