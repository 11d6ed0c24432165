package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/analytics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/auth"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cache"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/config"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/email"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/engagement"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/handlers"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/middleware"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/moderation"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/report"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/storage"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/telemetry"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/tenants"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()
	metrics.Initialize()

	logger.L().Info("=== ImpactUsAll server starting ===", zap.String("environment", cfg.Environment))

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "impactusall-api",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TracingSampling,
	})
	if err != nil {
		logger.L().Warn("Tracing disabled", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	if err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction()); err != nil {
		logger.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Migrate(database.DB); err != nil {
		logger.L().Fatal("Failed to run migrations", zap.Error(err))
	}
	if cfg.TracingEnabled {
		if err := database.DB.Use(telemetry.GORMTracingPlugin()); err != nil {
			logger.L().Warn("Failed to install GORM tracing", zap.Error(err))
		}
	}
	db := database.DB

	// Redis backs the rate limiter and the summary cache. Without it each
	// instance keeps its own counters.
	memory := cache.NewMemoryStore()
	var (
		store       cache.Store              = memory
		counter     middleware.WindowCounter = memory
		redisClient *cache.RedisClient
	)
	if addr := cfg.RedisAddr(); addr != "" {
		redisClient, err = cache.NewRedisClient(addr, cfg.RedisPassword)
		if err != nil {
			logger.L().Warn("Redis unavailable, using in-process cache", zap.Error(err))
		} else {
			store = redisClient
			counter = redisClient
			defer redisClient.Close()
		}
	}

	var blobs storage.BlobStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.L().Fatal("Failed to initialize S3 store", zap.Error(err))
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.L().Warn("S3 bucket access failed, uploads will fail", zap.Error(err))
		}
		blobs = s3Store
	} else {
		logger.L().Warn("AWS_BUCKET not set, media is kept in memory")
		blobs = storage.NewMemoryStore(cfg.PublicSiteURL + "/media")
	}

	var notifier content.Notifier
	if cfg.IsProduction() || os.Getenv("SES_ENABLED") == "true" {
		ses, err := email.NewSESNotifier(cfg.AWSRegion, cfg.SESFromAddress, "ImpactUsAll")
		if err != nil {
			logger.L().Warn("SES unavailable, story notifications disabled", zap.Error(err))
		} else {
			notifier = ses
		}
	}

	hub := websocket.NewHub()
	go hub.Run()

	users := repository.NewUserRepository(db)
	authService := auth.NewService(users, []byte(cfg.JWTSecret), cfg.JWTTTL)
	contentService := content.NewService(db, blobs, notifier, content.Options{
		PublicSiteURL: cfg.PublicSiteURL,
		URLExpiry:     cfg.SignedURLTTL,
	})
	engagementService := engagement.NewService(db, hub)
	moderationService := moderation.NewService(db, engagementService, contentService)
	analyticsService := analytics.NewService(db, store, analytics.Options{DefaultWindowDays: cfg.AnalyticsWindowDays})
	reports := report.NewGenerator(db, blobs, report.NewHTTPImageFetcher(), report.Options{
		Heuristics: report.Heuristics{
			ReachPerEngagement:       cfg.ReachMultiplier,
			ImpressionsPerEngagement: cfg.ImpressionMultiplier,
		},
		URLExpiry: cfg.SignedURLTTL,
	})

	rollupWorker := analytics.NewWorker(analytics.NewRollup(db, analyticsService), cfg.RollupInterval)
	rollupWorker.Start()
	defer rollupWorker.Stop()

	origins := allowedOrigins(cfg)
	h := handlers.NewHandlers(handlers.Deps{
		Auth:           authService,
		Users:          users,
		Content:        contentService,
		Engagement:     engagementService,
		Moderation:     moderationService,
		Analytics:      analyticsService,
		Recorder:       analytics.NewRecorder(db),
		Reports:        reports,
		Tenants:        tenants.NewService(db, users),
		Hub:            hub,
		AllowedOrigins: originHosts(origins),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.TracingEnabled {
		r.Use(middleware.TracingMiddleware("impactusall-api"))
	}

	corsConfig := cors.DefaultConfig()
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Report-Pages", "X-RateLimit-Remaining", "Retry-After"}
	r.Use(cors.New(corsConfig))
	// PDFs and websocket upgrades are not worth compressing
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/live$`, `/reports$`})))

	err = h.RegisterRoutes(r, handlers.RouteOptions{
		Authenticator:      authService,
		Counter:            counter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Health: func() map[string]string {
			checks := map[string]string{"database": "ok"}
			if err := database.Health(); err != nil {
				checks["database"] = err.Error()
			}
			if redisClient != nil {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				checks["redis"] = "ok"
				if err := redisClient.Ping(ctx); err != nil {
					checks["redis"] = err.Error()
				}
			}
			return checks
		},
	})
	if err != nil {
		logger.L().Fatal("Failed to register routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L().Info("ImpactUsAll API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		logger.L().Warn("WebSocket shutdown warning", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("Server forced to shutdown", zap.Error(err))
	}

	logger.L().Info("Server exited", zap.String("hub", hub.Stats().String()))
}

func allowedOrigins(cfg *config.Config) []string {
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		var out []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
		return out
	}
	if cfg.IsProduction() {
		return []string{cfg.PublicSiteURL}
	}
	return []string{"*"}
}

// originHosts strips schemes for the websocket origin check, which matches
// on host patterns.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return hosts
}
