package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couple-planner/backend/internal/cache"
	"couple-planner/backend/internal/config"
	"couple-planner/backend/internal/database"
	"couple-planner/backend/internal/handlers"
	"couple-planner/backend/internal/middleware"
	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/monitoring"
	"couple-planner/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm/logger"
)

// Application holds all application dependencies and state.
type Application struct {
	Config *config.Config
	Pool   *database.Pool
	Cache  cache.Cache
	Router *gin.Engine
	Server *http.Server

	ActivitySink  *services.ActivitySink
	TaskService   services.TaskService
	GoalService   services.GoalService
	MemoryService services.MemoryService
	AuthService   services.AuthService
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	log.Printf("initializing couple-planner backend (%s)", cfg.Server.Environment)

	pool, err := database.NewPool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logger.Warn,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.Pool = pool

	if err := pool.AutoMigrate(
		&models.Task{},
		&models.Goal{},
		&models.Memory{},
		&models.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("database connected and migrated")

	app.ActivitySink = services.NewActivitySink(pool.DB, cfg.Activity.QueueSize)
	app.ActivitySink.Start(cfg.Activity.Workers)

	taskService := services.NewTaskService(app.ActivitySink)
	goalService := services.NewGoalService(app.ActivitySink)
	app.TaskService = taskService
	app.GoalService = goalService
	app.MemoryService = services.NewMemoryService()
	app.AuthService = services.NewAuthService(cfg.Auth)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable: %v (continuing without list cache)", err)
		redisClient.Close()
	} else {
		app.Cache = cache.NewRedisCacheFromClient(redisClient)
		app.TaskService = services.NewCachedTaskService(taskService, app.Cache, cfg.Redis.ListCacheTTL)
		app.GoalService = services.NewCachedGoalService(goalService, app.Cache, cfg.Redis.ListCacheTTL)
		log.Println("redis list cache enabled")
	}

	log.Println("all services initialized")

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(middleware.RecoveryWithLog())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())

	if app.Config.RateLimit.Enabled {
		limit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
		r.Use(middleware.RateLimiter(limit, app.Config.RateLimit.BurstSize))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", app.healthHandler())
	r.GET("/ready", app.readinessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	v1 := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(app.AuthService)
	v1.POST("/auth/login", authHandler.Login)

	protected := v1.Group("")
	protected.Use(middleware.Authn(middleware.AuthnConfig{
		Secret:   app.Config.Auth.JWTSecret,
		Issuer:   app.Config.Auth.Issuer,
		Audience: app.Config.Auth.Audience,
	}))
	{
		taskHandler := handlers.NewTaskHandler(app.Pool.DB, app.TaskService)
		protected.GET("/tasks", taskHandler.GetTasks)
		protected.POST("/tasks", taskHandler.CreateTask)
		protected.PUT("/tasks", taskHandler.UpdateTask)
		protected.DELETE("/tasks", taskHandler.DeleteTask)

		goalHandler := handlers.NewGoalHandler(app.Pool.DB, app.GoalService)
		protected.GET("/goals", goalHandler.GetGoals)
		protected.POST("/goals", goalHandler.CreateGoal)
		protected.PUT("/goals", goalHandler.UpdateGoal)
		protected.DELETE("/goals", goalHandler.DeleteGoal)

		memoryHandler := handlers.NewMemoryHandler(app.Pool.DB, app.MemoryService)
		protected.GET("/memories", memoryHandler.GetMemories)
		protected.POST("/memories", memoryHandler.CreateMemory)
		protected.PUT("/memories", memoryHandler.UpdateMemory)
		protected.DELETE("/memories", memoryHandler.DeleteMemory)

		activityHandler := handlers.NewActivityHandler(app.Pool.DB)
		protected.GET("/activity", activityHandler.GetActivity)

		protected.GET("/stats/scoreboard", taskHandler.GetScoreboard)
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("server stopped gracefully")
	}()

	log.Printf("server starting on %s", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	if app.ActivitySink != nil {
		app.ActivitySink.Stop()
	}

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("error closing cache: %v", err)
		}
	}

	if app.Pool != nil {
		if err := app.Pool.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}
}

func (app *Application) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "couple-planner-backend",
		}

		if err := app.Pool.Health(); err != nil {
			health["status"] = "degraded"
			health["db"] = "fail"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["db"] = "ok"

		c.JSON(http.StatusOK, health)
	}
}

func (app *Application) readinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Pool.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "reason": "database not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	}
}
