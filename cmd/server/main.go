package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's request logger and recovery
	glog "github.com/labstack/gommon/log"           // log levels for Echo's logger

	"github.com/iliyamo/cinema-assistant/internal/apiclient"  // remote chat API client
	"github.com/iliyamo/cinema-assistant/internal/config"     // Internal config loader
	"github.com/iliyamo/cinema-assistant/internal/handler"    // page handlers
	"github.com/iliyamo/cinema-assistant/internal/health"     // startup health probe
	"github.com/iliyamo/cinema-assistant/internal/middleware" // session cookie and rate limiting
	"github.com/iliyamo/cinema-assistant/internal/results"    // show store
	"github.com/iliyamo/cinema-assistant/internal/router"     // Internal router setup
	"github.com/iliyamo/cinema-assistant/internal/session"    // per-visitor UI state
	"github.com/iliyamo/cinema-assistant/internal/view"       // page templates
)

func main() {
	cfg := config.Load() // Load environment config
	rl := config.LoadRateLimitConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it shows and rate limits stay in process.
	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Printf("redis unavailable; using in-process show store and rate limiter")
	} else {
		defer rdb.Close()
	}

	storeType := results.StoreType(cfg.ShowStore)
	if storeType == results.StoreTypeRedis && rdb == nil {
		storeType = results.StoreTypeMemory
	}
	store, err := results.NewStore(storeType, results.WithRedisClient(rdb), results.WithTTL(cfg.SessionTTL))
	if err != nil {
		log.Fatalf("show store: %v", err)
	}
	defer store.Close()

	client := apiclient.New(cfg.APIBaseURL)
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	status := health.Default.Init(checkCtx, client)
	cancel()
	log.Printf("chat API at %s is %s", client.BaseURL(), status)

	reg := session.NewRegistry(session.Deps{Sender: client, Store: store, DismissDelay: cfg.VoiceDismissDelay}, cfg.SessionTTL)
	defer reg.Close()
	go reg.Run(ctx, time.Minute)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Renderer = view.New()
	e.Logger.SetLevel(glog.INFO)
	if cfg.Env == "dev" {
		e.Logger.SetLevel(glog.DEBUG)
	}
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	h := handler.NewUIHandler(client, store, health.Default, cfg.APIBaseURL, cfg.SeatPrice)
	router.RegisterRoutes(e, h) // Register application routes
	router.RegisterUI(e, h, router.UIMiddleware{
		Sessions:   middleware.Sessions(reg, cfg.SessionSecret, cfg.SessionTTL),
		ChatLimit:  middleware.NewTokenBucket(rl, rdb),
		MovieCache: middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
