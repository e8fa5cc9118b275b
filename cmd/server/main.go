// Package main provides the HTTP server for the homeport qualifier: workbook
// upload and analysis, run lookup, health and metrics.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeport-qualifier/internal/config"
	"homeport-qualifier/internal/handlers"
	"homeport-qualifier/internal/services/analysis"
	"homeport-qualifier/internal/services/database"
	"homeport-qualifier/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	layout, err := cfg.ResolveLayout()
	if err != nil {
		logger.Fatal("Failed to load layout", utils.Error(err))
	}

	server := &Server{maxUpload: cfg.MaxUploadBytes()}

	var store analysis.RunStore
	db, err := database.New(cfg)
	if err != nil {
		logger.Warn("Could not connect to database, running without run audit", utils.Error(err))
		server.health = handlers.NewHealthHandlerWith(nil, cfg.Stage)
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Warn("Failed to apply schema", utils.Error(err))
		}
		cancel()

		repo := database.NewRunRepository(db)
		store = repo
		server.runs = repo
		server.health = handlers.NewHealthHandlerWith(db, cfg.Stage)
	}
	server.analyzer = analysis.NewService(cfg, layout, store)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Homeport qualifier API listening",
			utils.String("addr", srv.Addr),
			utils.String("sheet", layout.SheetName),
			utils.Bool("audit", store != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", utils.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", utils.Error(err))
	}
	logger.Info("Server stopped")
}
