package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/config"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/database"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/logging"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	routes "github.com/AgusMolinaCode/CSE_Portfolio/internal/server"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := database.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("initialising database")
	}
	defer database.DB.Close()

	reg := metrics.New()
	hub := realtime.NewHub(reg)

	quotes, closeCache, err := services.NewQuoteServiceFromConfig(cfg, repository.NewQuoteSnapshotRepository(database.DB), hub, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialising quotes")
	}
	defer closeCache()

	priceUpdater := services.NewPriceUpdater(
		cfg.QuoteRefreshInterval,
		quotes,
		repository.NewPortfolioRepository(database.DB),
		repository.NewPortfolioSnapshotRepository(database.DB),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(), reg.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Admin-Key"}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	routes.RegisterRoutes(router, routes.Deps{
		Config:  cfg,
		DB:      database.DB,
		Quotes:  quotes,
		Updater: priceUpdater,
		Hub:     hub,
		Metrics: reg,
	})

	priceUpdater.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	priceUpdater.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
