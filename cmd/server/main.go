package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/internal/eta"
	"github.com/rapidride/prediction-service/internal/fare"
	"github.com/rapidride/prediction-service/internal/geo"
	"github.com/rapidride/prediction-service/internal/jobs"
	"github.com/rapidride/prediction-service/pkg/cache"
	"github.com/rapidride/prediction-service/pkg/config"
	"github.com/rapidride/prediction-service/pkg/database"
	"github.com/rapidride/prediction-service/pkg/eventbus"
	"github.com/rapidride/prediction-service/pkg/health"
	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/middleware"
	"github.com/rapidride/prediction-service/pkg/models"
	redisClient "github.com/rapidride/prediction-service/pkg/redis"
	"github.com/rapidride/prediction-service/pkg/resilience"
)

const (
	serviceName = "prediction-service"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	environment := cfg.Server.Environment
	if err := logger.Init(environment); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Redis backs the cache and the job store. The service starts without
	// it and degrades to cache misses and in-memory jobs.
	var redis *redisClient.Client
	if r, err := redisClient.NewRedisClient(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, running degraded", zap.Error(err))
	} else {
		redis = r
		defer redis.Close()
	}

	var cacheManager *cache.Manager
	if redis != nil {
		cacheManager = cache.NewManager(redis)
	} else {
		cacheManager = cache.NewManager(nil)
	}

	// Postgres is optional; without it predictions skip route-history
	// enrichment and are not recorded.
	var dbPool *pgxpool.Pool
	if cfg.Database.Enabled {
		dbPool, err = database.NewPostgresPool(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close(dbPool)
	}

	// NATS publishes prediction lifecycle events.
	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.StreamName,
		})
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", zap.Error(err))
			bus = nil
		} else {
			defer bus.Close()
		}
	}

	// Fare pipeline
	calculator := fare.NewCalculator(cfg.Pricing)
	fareHandler := fare.NewHandler(fare.NewService(calculator, cacheManager, bus))

	// ETA pipeline
	engine := eta.NewEngine(cfg.Model)
	var repo eta.PredictionRepository
	if dbPool != nil {
		repo = eta.NewRepository(dbPool)
	}
	etaService := eta.NewService(engine, cacheManager, repo)

	var jobStore jobs.Store
	if redis != nil {
		jobStore = jobs.NewRedisStore(redis, cfg.Jobs.Retention())
	} else {
		jobStore = jobs.NewMemoryStore()
	}

	tracker := jobs.NewTracker(jobStore, cfg.Jobs.Workers, cfg.Jobs.QueueSize, jobHooks(bus))
	trackerCtx, cancelTracker := context.WithCancel(context.Background())
	defer cancelTracker()
	tracker.Start(trackerCtx)
	defer tracker.Stop()

	etaHandler := eta.NewHandler(etaService, tracker, bus)

	// Geocoding collaborator
	geocoder := geo.NewGeocodingService(cfg.Geocode, cacheManager)
	geocoder.SetCircuitBreaker(resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "geocode",
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}, nil))
	geoHandler := geo.NewHandler(geocoder)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName, "version": version})
	})
	router.GET("/health", health.Handler(version, health.Probes{
		ModelLoaded:    etaService.ModelLoaded,
		QueueConnected: queueProbe(bus),
		RedisHealthy:   health.RedisChecker(redis),
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	fareHandler.RegisterRoutes(router)
	etaHandler.RegisterRoutes(router)
	geoHandler.RegisterRoutes(router)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Prediction service starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down prediction service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Prediction service stopped")
}

// jobHooks publishes job lifecycle events when the bus is available.
func jobHooks(bus *eventbus.Bus) jobs.Hooks {
	if bus == nil {
		return jobs.Hooks{}
	}

	publish := func(subject string, data interface{}) {
		go func() {
			event, err := eventbus.NewEvent(subject, serviceName, data)
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := bus.Publish(ctx, subject, event); err != nil {
				logger.Warn("failed to publish job event", zap.String("subject", subject), zap.Error(err))
			}
		}()
	}

	return jobs.Hooks{
		OnCompleted: func(job *jobs.Job) {
			data := eventbus.ETACompletedData{
				JobID:       job.ID,
				CompletedAt: job.UpdatedAt,
			}
			var estimate models.ETAEstimate
			if err := json.Unmarshal(job.Result, &estimate); err == nil {
				data.ETASeconds = float64(estimate.ETASeconds)
				data.Confidence = estimate.Confidence
			}
			publish(eventbus.SubjectETACompleted, data)
		},
		OnFailed: func(job *jobs.Job) {
			publish(eventbus.SubjectETAFailed, eventbus.ETAFailedData{
				JobID:    job.ID,
				Error:    job.Error,
				FailedAt: job.UpdatedAt,
			})
		},
	}
}

func queueProbe(bus *eventbus.Bus) func() bool {
	return func() bool {
		return bus != nil && bus.Connected()
	}
}
