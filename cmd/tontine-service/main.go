package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nurpe/tontine/internal/auth"
	"github.com/nurpe/tontine/internal/config"
	"github.com/nurpe/tontine/internal/db"
	"github.com/nurpe/tontine/internal/excel"
	httphandler "github.com/nurpe/tontine/internal/http"
	"github.com/nurpe/tontine/internal/http/middleware"
	"github.com/nurpe/tontine/internal/logger"
	"github.com/nurpe/tontine/internal/pdf"
	"github.com/nurpe/tontine/internal/repository"
	"github.com/nurpe/tontine/internal/service"
	"github.com/nurpe/tontine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	window, err := excel.NewMonthWindow(cfg.Import.ImportWindow())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid import window")
	}

	var photos service.PhotoStorage
	if cfg.Storage.Enabled {
		store, err := storage.New(context.Background(), cfg.Storage, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init photo storage")
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare photo bucket")
		}
		photos = store
	}

	memberRepo := repository.NewMemberRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	lotRepo := repository.NewLotRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	quotaStep := cfg.Tontine.QuotaStep
	memberService := service.NewMemberService(memberRepo, paymentRepo, lotRepo, settingsRepo, quotaStep)
	paymentService := service.NewPaymentService(memberRepo, paymentRepo, log)

	handler := httphandler.NewHandler(httphandler.Services{
		Members:  memberService,
		Payments: paymentService,
		Lots:     service.NewLotService(lotRepo, photos, log),
		Settings: service.NewSettingsService(settingsRepo, lotRepo, memberRepo, quotaStep, log),
		Reports:  service.NewReportService(memberService, paymentService, pdf.NewGenerator(), excel.NewGenerator(), cfg.Tontine.Currency),
		Imports:  service.NewImportService(memberService, window, log),
	}, cfg.Import.MaxFileSize, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Bool("photo_storage", photos != nil).Msg("starting tontine service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
