package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"tryonhub/internal/auth"
	"tryonhub/internal/bridge"
	"tryonhub/internal/extract"
	"tryonhub/internal/proxy"
	"tryonhub/internal/scanner"
	"tryonhub/internal/search"
	"tryonhub/internal/wardrobe"
	"tryonhub/pkg/database"
	"tryonhub/pkg/storage"
	"tryonhub/pkg/utils"
)

func main() {
	utils.LoadDotenv()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Messaging bridge for page clients
	hub := bridge.NewHub()
	router.GET("/ws", bridge.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.Clients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "ready",
			"db":            "ok",
			"ws_clients":    stats.Clients,
			"pending_scans": stats.PendingScans,
		})
	})

	api := router.Group("/api")

	// Accounts
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokenSvc).RegisterRoutes(api)

	// Wardrobe
	wardrobeRepo := wardrobe.NewRepo(db)
	wardrobe.NewHandler(wardrobeRepo, hub).RegisterRoutes(api)

	// Unified search across configured stores
	var sources []search.Source
	for _, s := range utils.LoadStoreSources("TRYONHUB_STORE_APIS") {
		sources = append(sources, search.NewJSONSource(s.Name, s.URL))
	}
	for _, s := range utils.LoadStoreSources("TRYONHUB_STORE_PAGES") {
		sources = append(sources, search.NewHTMLSource(s.Name, s.URL))
	}
	if len(sources) == 0 {
		log.Println("[config] no stores configured, unified search will return empty results")
	}
	kv := storage.NewSQLStore(db)
	search.NewHandler(search.NewAggregator(sources...), kv).RegisterRoutes(api)

	// Image proxy
	proxy.NewHandler().RegisterRoutes(api)

	// Full extraction tier stack: page clients, direct fetch, wardrobe
	extract.NewHandler(hub, scanner.NewFetcher(), wardrobeRepo).RegisterRoutes(api)

	// Periodic sweep of stale search cache rows
	sched := cron.New()
	_, err := sched.AddFunc("@every 30m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := search.SweepCache(ctx, db, time.Hour)
		if err != nil {
			log.Printf("[sweep] search cache: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[sweep] dropped %d stale search cache rows", n)
		}
	})
	if err != nil {
		log.Fatalf("schedule cache sweep: %v", err)
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:    listenAddr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-sched.Stop().Done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("server stopped")
}

func listenAddr() string {
	if addr := os.Getenv("TRYONHUB_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
