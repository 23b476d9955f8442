package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"imagination-site-api/internal/app"
	"imagination-site-api/internal/config"
	"imagination-site-api/internal/handler"
	"imagination-site-api/internal/page"
	"imagination-site-api/internal/router"
	"imagination-site-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Imagination site API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Asset cache for per-game lookups
	assets, cacheType := app.NewAssetCache(cfg.Cache)
	defer assets.Close()

	// Refresh history (optional)
	history, err := app.NewHistory(cfg.History)
	if err != nil {
		log.Fatalf("Failed to initialize %s history: %v", cfg.History.Type, err)
	}
	var recorder page.Recorder
	var pruner *service.HistoryPruner
	if history != nil {
		defer history.Close()
		recorder = history
		log.Printf("%s history repository initialized", cfg.History.Type)

		pruner = service.NewHistoryPruner(history, service.PrunerConfig{
			Retention: cfg.History.Retention,
			Interval:  cfg.History.PruneInterval,
		})
		pruner.Start()
		defer pruner.Stop()
	} else {
		log.Println("Refresh history disabled")
	}

	// Upstream client and page controller
	client := app.NewRobloxClient(cfg.Roblox, assets, cfg.Cache.TTL)
	log.Printf("Roblox client for group %s (strategy: %s)", cfg.Roblox.GroupID, client.Strategy())

	controller, err := app.NewController(cfg, client, recorder)
	if err != nil {
		log.Fatalf("Failed to create page controller: %v", err)
	}
	controller.Start(context.Background())

	// Initialize handlers
	adminCfg := handler.AdminConfig{
		Page:           controller,
		Cache:          assets,
		CacheType:      cacheType,
		HistoryType:    cfg.History.Type,
		RefreshTimeout: cfg.Page.LoadTimeout,
	}
	if history != nil {
		adminCfg.History = history
		adminCfg.Pruner = pruner
	}
	if cfg.App.AdminKey == "" {
		log.Println("Warning: ADMIN_KEY not set, admin routes disabled")
	}

	r := router.New(router.Config{
		Handler:      handler.New(cfg.App.Name, cfg.App.Version, controller),
		PageHandler:  handler.NewPageHandler(controller),
		AdminHandler: handler.NewAdminHandler(adminCfg),
		AdminKey:     cfg.App.AdminKey,
		StaticDir:    cfg.Server.StaticDir,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Stop refreshing before the stores close
	controller.Stop()

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
