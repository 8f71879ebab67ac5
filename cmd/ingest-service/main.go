package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/ingest-service/docs"
	"github.com/princekumarofficial/ingest-service/internal/cache"
	"github.com/princekumarofficial/ingest-service/internal/config"
	"github.com/princekumarofficial/ingest-service/internal/events"
	"github.com/princekumarofficial/ingest-service/internal/http/handlers/health"
	"github.com/princekumarofficial/ingest-service/internal/http/handlers/upload"
	wsHandler "github.com/princekumarofficial/ingest-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/ingest-service/internal/http/middleware"
	"github.com/princekumarofficial/ingest-service/internal/ingest"
	"github.com/princekumarofficial/ingest-service/internal/ratelimit"
	"github.com/princekumarofficial/ingest-service/internal/services/blob"
	"github.com/princekumarofficial/ingest-service/internal/storage"
	"github.com/princekumarofficial/ingest-service/internal/storage/postgres"
	"github.com/princekumarofficial/ingest-service/internal/utils/jwt"
	"github.com/princekumarofficial/ingest-service/internal/websocket"
)

// @title Ingest Service API
// @version 1.0
// @description Secure document and photo upload ingestion.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// load config
	cfg := config.MustLoad()
	logger := config.SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// database setup
	pg, err := postgres.NewPostgres(ctx, cfg.PGSQL)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer pg.Close()
	var store storage.Store = pg

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	slog.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))

	blobs, err := blob.NewService(cfg.MinIO)
	if err != nil {
		log.Fatal("Failed to initialize object storage: ", err)
	}
	if err := blobs.EnsureBuckets(ctx); err != nil {
		log.Fatal("Failed to prepare buckets: ", err)
	}
	slog.Info("Object storage ready", slog.String("endpoint", cfg.MinIO.Endpoint))

	cors, err := middleware.NewCORS(cfg.CORS)
	if err != nil {
		log.Fatal("Invalid CORS configuration: ", err)
	}
	proxies, err := middleware.NewTrustedProxies(cfg.HTTPServer.TrustedProxies)
	if err != nil {
		log.Fatal("Invalid trusted proxy configuration: ", err)
	}
	verifier := jwt.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	observers := []ingest.Observer{
		events.NewEventPublisher(hub),
		cache.NewQuarantineTally(redisClient, logger),
	}

	documents := ingest.NewPipeline(ingest.Options{
		Mode:            ingest.ModeDocuments,
		Policies:        ingest.DocumentPolicies(),
		RawBucket:       cfg.MinIO.RawBucket,
		ProcessedBucket: cfg.MinIO.ProcessedBucket,
		URLTTL:          cfg.Upload.DocumentURLTTL,
		MaxFiles:        cfg.Upload.MaxFiles,
		MaxBatchBytes:   cfg.Upload.MaxBatchBytes,
	}, store, blobs, logger, observers...)

	photos := ingest.NewPipeline(ingest.Options{
		Mode:            ingest.ModePhotos,
		Policies:        ingest.PhotoPolicies(),
		RawBucket:       cfg.MinIO.RawBucket,
		ProcessedBucket: cfg.MinIO.ProcessedBucket,
		URLTTL:          cfg.Upload.PhotoURLTTL,
		MaxFiles:        cfg.Upload.MaxFiles,
		MaxBatchBytes:   cfg.Upload.MaxBatchBytes,
	}, store, blobs, logger, observers...)

	limiter := ratelimit.NewTokenBucket(redisClient, cfg.Upload.RateLimitPerMinute, cfg.Upload.RateLimitPerMinute)
	auth := middleware.AuthMiddleware(verifier)

	protect := func(action string, h http.Handler) http.Handler {
		return cors.Middleware(auth(middleware.RateLimit(limiter, action, logger)(h)))
	}

	// setup router
	router := http.NewServeMux()

	documentHandler := protect("upload-document", upload.NewHandler(documents, logger).UploadDocument())
	router.Handle("POST /upload-document", documentHandler)
	router.Handle("OPTIONS /upload-document", documentHandler)

	photoHandler := protect("upload-photo", upload.NewHandler(photos, logger).UploadPhoto())
	router.Handle("POST /upload-photo", photoHandler)
	router.Handle("OPTIONS /upload-photo", photoHandler)

	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(hub, verifier, cors.CheckOrigin))
	router.HandleFunc("GET /healthz", health.Healthz(map[string]health.Pinger{
		"postgres": store,
		"redis":    health.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		"minio":    blobs,
	}))
	router.Handle("GET /metrics", promhttp.Handler())
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	handler := proxies.Middleware(middleware.Metrics(middleware.RequestLogger(logger)(middleware.Recover(logger)(router))))

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}
	cancel()

	slog.Info("Server stopped")
}
