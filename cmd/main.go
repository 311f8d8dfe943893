package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"cfanalytics/api"
	"cfanalytics/cache"
	"cfanalytics/codeforces"
	configs "cfanalytics/config"
	"cfanalytics/logger"
	"cfanalytics/mongoconn"
	"cfanalytics/natsclient"
	"cfanalytics/repository"
	"cfanalytics/service"
)

const serviceName = "cfanalytics"

func main() {
	configValues := configs.LoadConfig()

	logStreamer, err := logger.NewLogStreamer(serviceName, configValues.LogLevel, configValues.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logStreamer.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoclientInstance, err := mongoconn.ConnectDB(ctx, configValues.MongoDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoclientInstance.Disconnect(context.Background())

	repoInstance := repository.NewRepository(mongoclientInstance, configValues.MongoDBName)
	if err := repoInstance.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	var (
		cacheInstance cache.Cache
		board         cache.Board
	)
	if configValues.RedisURL != "" {
		redisClient := cache.NewRedisClient(configValues.RedisURL, configValues.RedisPassword, configValues.RedisDB)
		redisCache := cache.NewRedisCache(redisClient, logStreamer)
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Failed to reach Redis at %s: %v", configValues.RedisURL, err)
		}
		defer redisClient.Close()
		cacheInstance = redisCache
		board = cache.NewRatingBoard(redisClient, cache.DefaultBoardKey)
	} else {
		logStreamer.Log(zapcore.WarnLevel, "", "REDISURL not set, using in-memory cache", nil, "SERVICE", nil)
		cacheInstance = cache.NewMemoryCache(nil)
		board = cache.NewMemoryBoard()
	}

	opts := []service.Option{service.WithLocation(configValues.Location())}
	natsClient, err := natsclient.NewNatsClient(configValues.NATSURL)
	if err != nil {
		logStreamer.Log(zapcore.WarnLevel, "", "NATS unavailable, refresh events disabled", map[string]any{
			"url": configValues.NATSURL,
		}, "SERVICE", err)
	} else {
		defer natsClient.Close()
		opts = append(opts, service.WithPublisher(natsClient))
	}

	cfClient := codeforces.New(configValues.CodeforcesURL,
		codeforces.WithHTTPClient(&http.Client{Timeout: configValues.HTTPTimeout}),
		codeforces.WithRetries(configValues.FetchRetries),
		codeforces.WithLogger(logStreamer),
	)

	serviceInstance := service.NewService(cfClient, repoInstance, cacheInstance, board, logStreamer, opts...)
	cronJob, err := serviceInstance.StartCronJob(configValues.RefreshCron)
	if err != nil {
		log.Fatalf("Failed to schedule refresh: %v", err)
	}

	// gRPC carries the health service only
	lis, err := net.Listen("tcp", ":"+configValues.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on port %s: %v", configValues.GRPCPort, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	go func() {
		log.Printf("gRPC health server running on port %s", configValues.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	router := api.NewRouter(api.NewHandlers(serviceInstance, logStreamer))
	handler := handlers.RecoveryHandler()(handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router))
	httpServer := &http.Server{
		Addr:              ":" + configValues.HTTPPort,
		Handler:           handlers.LoggingHandler(os.Stdout, handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("HTTP server running on port %s", configValues.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	<-cronJob.Stop().Done()
	grpcServer.GracefulStop()
}
