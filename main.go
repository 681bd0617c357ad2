package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/fittrack/config"
	"github.com/fittrack/fittrack/handlers"
	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/metrics"
	"github.com/fittrack/fittrack/internal/store"
	"github.com/fittrack/fittrack/internal/websocket"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/middleware"
	"github.com/fittrack/fittrack/router"
	"github.com/fittrack/fittrack/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Session persistence
	var (
		redisClient *redis.Client
		sessions    store.SessionStore
		rateLimiter middleware.RateLimiter
	)
	if cfg.SessionStore.Driver == config.SessionDriverRedis {
		redisOptions := &redis.Options{
			Addr:     cfg.SessionStore.RedisAddress,
			Password: cfg.SessionStore.RedisPassword,
			DB:       cfg.SessionStore.RedisDB,
		}
		if cfg.SessionStore.RedisUseTLS {
			host, _, splitErr := net.SplitHostPort(cfg.SessionStore.RedisAddress)
			if splitErr != nil {
				host = cfg.SessionStore.RedisAddress
			}
			redisOptions.TLSConfig = &tls.Config{
				ServerName: host,
				MinVersion: tls.VersionTLS12,
			}
		}
		redisClient = redis.NewClient(redisOptions)
		defer redisClient.Close()

		sessions = store.NewRedisSessionStore(redisClient, cfg.Supabase.StorageKey)
		rateLimiter = services.NewRateLimitService(redisClient)
		log.Infow("Using Redis session store", "address", cfg.SessionStore.RedisAddress, "tls", cfg.SessionStore.RedisUseTLS)
	} else {
		sessions = store.NewMemorySessionStore()
		localLimiter := services.NewLocalRateLimiter(10 * time.Minute)
		defer localLimiter.Stop()
		rateLimiter = localLimiter
		log.Info("Using in-memory session store")
	}

	// Backend client
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		log.Fatalf("Failed to create Supabase client: %v", err)
	}
	provider := services.NewAuthProvider(client, sessions, services.AuthProviderConfig{
		URL:     cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
	})
	profiles := services.NewProfileRepository(client)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	authStore := auth.NewStore(provider, profiles,
		auth.WithRecorder(collector),
		auth.WithRedirectURL(cfg.Server.SiteURL),
	)
	defer authStore.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	if err := authStore.Initialize(initCtx); err != nil {
		cancelInit()
		log.Fatalf("Failed to initialize auth store: %v", err)
	}
	cancelInit()

	healthService := services.NewHealthService(redisClient, cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Server.Version)
	healthService.SetSignedInGetter(func() bool {
		return authStore.State().User != nil
	})

	hub := websocket.NewHub(authStore, collector)

	r := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		AuthHandler:   handlers.NewAuthHandler(authStore),
		LookupHandler: handlers.NewLookupHandler(),
		HealthHandler: handlers.NewHealthHandler(healthService, authStore),
		StateStream:   websocket.NewHandler(hub, &cfg.Server),
		HTTPRecorder:  collector,
		Gatherer:      prometheus.DefaultGatherer,
		RateLimiter:   rateLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		log.Warnw("Auth stream shutdown incomplete", "error", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
		return
	}
	log.Info("Server stopped")
}
