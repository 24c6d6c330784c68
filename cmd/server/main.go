package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sang1833/EnglishPractice-sub000/internal/config"
	mongodb "github.com/sang1833/EnglishPractice-sub000/internal/database/mongo"
	redisdb "github.com/sang1833/EnglishPractice-sub000/internal/database/redis"
	"github.com/sang1833/EnglishPractice-sub000/internal/event"
	"github.com/sang1833/EnglishPractice-sub000/internal/handlers"
	"github.com/sang1833/EnglishPractice-sub000/internal/lock"
	"github.com/sang1833/EnglishPractice-sub000/internal/metrics"
	"github.com/sang1833/EnglishPractice-sub000/internal/middleware"
	"github.com/sang1833/EnglishPractice-sub000/internal/repository"
	"github.com/sang1833/EnglishPractice-sub000/internal/service"
	"github.com/sang1833/EnglishPractice-sub000/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type repositories struct {
	exams    service.ExamRepository
	attempts service.AttemptRepository
	answers  service.AnswerRepository
	results  service.ResultRepository
}

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	ctx := context.Background()

	var repos repositories
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Println("Using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		if cfg.ExamsFile != "" {
			n, err := store.LoadExamsFile(cfg.ExamsFile)
			if err != nil {
				log.Fatalf("Failed to load exams: %v", err)
			}
			log.Printf("Loaded %d exams from %s", n, cfg.ExamsFile)
		}
		repos = repositories{store.Exams(), store.Attempts(), store.Answers(), store.Results()}
	default:
		if cfg.MongoURI == "" {
			log.Fatal("MONGO_URI is required")
		}
		client, database, err := mongodb.Connect(ctx, mongodb.DefaultConfig(cfg.MongoURI, cfg.MongoDatabase))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongodb.Disconnect(client)

		if err := repository.EnsureIndexes(ctx, database); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		repos = repositories{
			exams:    repository.NewExamRepository(database),
			attempts: repository.NewAttemptRepository(database),
			answers:  repository.NewAnswerRepository(database),
			results:  repository.NewResultRepository(database),
		}
	}

	var locker service.Locker = lock.NewMemoryLocker()
	if cfg.RedisAddress != "" {
		client, err := redisdb.NewClient(ctx, redisdb.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.LockTTL, cfg.LockWait)
	} else {
		log.Println("Redis not configured, attempt locks are local to this instance")
	}

	// A nil *EventPublisher must not reach the service as a non-nil interface.
	var publisher service.EventPublisher
	if cfg.RabbitMQURI != "" && cfg.RabbitExchange != "" {
		p, err := event.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Println("RabbitMQ not configured, attempt events will not be published")
	}

	attemptService := service.NewAttemptService(repos.exams, repos.attempts, repos.answers, repos.results, locker, publisher)
	statisticsService := service.NewStatisticsService(repos.exams, repos.attempts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.RegisterRoutes(r,
		middleware.Auth(cfg.JWTSecret),
		handlers.NewAttemptHandler(attemptService),
		handlers.NewStatisticsHandler(statisticsService),
	)

	var registry *discovery.ServiceRegistry
	if cfg.ConsulAddress != "" {
		var err error
		registry, err = discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Service Discovery Init Failed: %s", err)
		}
		if err := registry.Register(); err != nil {
			log.Printf("Consul registration failed, continuing without it: %v", err)
			registry = nil
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Printf("Error deregistering from Consul: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	log.Println("Server exited, goodbye!")
}
