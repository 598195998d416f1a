package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pulseboard/notify/internal/app"
	"pulseboard/notify/internal/bridge"
	"pulseboard/notify/internal/config"
	"pulseboard/notify/internal/email"
	"pulseboard/notify/internal/export"
	"pulseboard/notify/internal/projects"
	"pulseboard/notify/internal/push"
	"pulseboard/notify/internal/search"
	"pulseboard/notify/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Prefer Redis: it doubles as the project event transport. Fall back
	// to Postgres when no Redis is configured; the event bridge is then
	// disabled.
	var (
		dataStore  store.Store
		redisStore *store.RedisStore
	)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rs, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		log.Printf("Using Redis for notification state")
		redisStore = rs
		dataStore = rs
	} else {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		log.Printf("Using PostgreSQL for notification state")
		dataStore = store.NewPostgresStore(db)
	}
	defer dataStore.Close()

	var platform push.Platform
	if strings.TrimSpace(cfg.PushGatewayURL) != "" {
		platform = push.NewGateway(cfg.PushGatewayURL, cfg.PushGatewayToken)
	} else {
		log.Printf("No push gateway configured, native alerts disabled")
	}
	negotiator := push.NewNegotiator(platform)

	projectSource := projects.NewClient(cfg.ProjectAPIURL, cfg.ProjectAPIToken)

	service := app.New(cfg, dataStore, negotiator, projectSource)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	service.SetSearch(search.NewService(meiliClient, service))

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if emailService.IsConfigured() {
		service.SetEmail(emailService)
	} else {
		log.Printf("SMTP not configured, email channel disabled")
	}

	var archive *export.Archive
	if strings.TrimSpace(cfg.ArchiveEndpoint) != "" {
		a, err := export.NewArchive(ctx, export.ArchiveConfig{
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
			Bucket:    cfg.ArchiveBucket,
			UseSSL:    cfg.ArchiveUseSSL,
		})
		if err != nil {
			log.Fatalf("report archive setup failed: %v", err)
		}
		archive = a
	}
	service.SetExporter(export.NewService(archive))

	if redisStore != nil {
		eventBridge := bridge.New(redisStore.Client(), service.HandleProjectEvent)
		if err := eventBridge.Start(ctx); err != nil {
			log.Fatalf("event bridge failed: %v", err)
		}
		defer eventBridge.Close()
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Pulseboard notifications listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
