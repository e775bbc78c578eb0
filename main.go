package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"watchdeck/api"
	"watchdeck/config"
	"watchdeck/handlers"
	"watchdeck/services/metadata"
	"watchdeck/services/trakt"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 watchdeck starting...")

	configPath := os.Getenv("WATCHDECK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	buildServices := func(s config.Settings) (*metadata.Service, *trakt.Client) {
		meta := metadata.NewService(metadata.Options{
			TMDBAPIKey:     s.Metadata.TMDBAPIKey,
			Language:       s.Metadata.Language,
			MaxParallel:    s.Pipeline.MaxParallel,
			CacheTTL:       time.Duration(s.Cache.ResponseTTLMinutes) * time.Minute,
			GenreOverrides: s.GenreLabels,
		})
		return meta, trakt.NewClient(s.Trakt.ClientID)
	}

	meta, traktClient := buildServices(settings)
	if !meta.Configured() {
		log.Printf("⚠️  No TMDB API key configured; widgets will serve diagnostic cards until one is set via /api/settings")
	}

	widgetHandler := handlers.NewWidgetHandler(meta, settings, traktClient)
	settingsHandler := handlers.NewSettingsHandler(cfgManager)
	settingsHandler.OnChange = func(s config.Settings) {
		m, t := buildServices(s)
		widgetHandler.Meta = m
		widgetHandler.Settings = s
		widgetHandler.Trakt = t
	}

	router := api.SetupRoutes(widgetHandler, settingsHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
