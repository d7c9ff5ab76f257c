package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/lembrabot/lembrabot/internal/bot"
	"github.com/lembrabot/lembrabot/internal/config"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/lembrabot/lembrabot/internal/handlers"
	"github.com/lembrabot/lembrabot/internal/logger"
	"github.com/lembrabot/lembrabot/internal/middleware"
	"github.com/lembrabot/lembrabot/internal/queue"
	"github.com/lembrabot/lembrabot/internal/scheduler"
	"github.com/lembrabot/lembrabot/internal/services/ai"
	"github.com/lembrabot/lembrabot/internal/services/telegram"
	"github.com/lembrabot/lembrabot/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for verbose logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("timezone", cfg.Timezone),
		zap.Duration("tick_interval", cfg.TickInterval),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	loc := cfg.Location()

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "lembrabot", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Connect to Redis for rate limiting
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	pingCancel()
	zapLogger.Info("connected_to_redis")

	// Connect to RabbitMQ for the delivery queue (required).
	// Retry with exponential backoff to handle broker startup delays.
	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Initialize repositories and services
	reminderRepo := database.NewReminderRepository(db)

	telegramClient := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, zapLogger)
	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := telegramClient.GetMe(verifyCtx); err != nil {
		zapLogger.Warn("telegram_token_verification_failed", zap.Error(err))
	}
	verifyCancel()

	var rewriter ai.DateRewriter
	if cfg.OpenAIKey != "" {
		rewriter = ai.NewOpenAIRewriter(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		zapLogger.Info("date_rewriter_enabled", zap.String("model", cfg.AIModel))
	} else {
		zapLogger.Info("date_rewriter_disabled_no_api_key")
	}

	commandRouter := bot.NewRouter(reminderRepo, rewriter, loc, zapLogger)
	dispatcher := scheduler.NewDispatcher(reminderRepo, jobQueue, zapLogger)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(commandRouter, telegramClient, zapLogger)
	reminderHandler := handlers.NewReminderHandler(reminderRepo, loc, zapLogger)
	tickHandler := handlers.NewTickHandler(dispatcher, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimitPerMin)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Setup router. gorilla/mux runs middleware in registration order.
	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("lembrabot"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// Telegram webhook: secret token auth instead of rate limiting, the
	// only caller is Telegram itself.
	webhookRouter := r.PathPrefix("/webhook").Subrouter()
	webhookRouter.Use(middleware.WebhookAuth(cfg.WebhookSecret, zapLogger))
	webhookRouter.Use(middleware.ContentType)
	webhookRouter.HandleFunc("/telegram", webhookHandler.HandleUpdate).Methods("POST")

	// REST API with rate limiting
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(middleware.ContentType)
	reminderHandler.RegisterRoutes(apiRouter)
	apiRouter.HandleFunc("/tick", tickHandler.Tick).Methods("POST")

	apiDocHandler := handlers.NewAPIDocHandler(filepath.Join("api", "openapi.yaml"))
	apiDocHandler.RegisterRoutes(apiRouter)

	// Register the webhook with Telegram when a public base URL is set.
	if cfg.BaseURL != "" {
		webhookURL := cfg.BaseURL + "/webhook/telegram"
		regCtx, regCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := telegramClient.SetWebhook(regCtx, webhookURL, cfg.WebhookSecret); err != nil {
			zapLogger.Warn("failed_to_register_webhook", zap.Error(err))
		}
		regCancel()
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// Scheduler loop: fires due reminders every tick.
	go func() {
		if err := dispatcher.Run(runCtx, cfg.TickInterval); err != nil && err != context.Canceled {
			zapLogger.Error("dispatcher_stopped_with_error", zap.Error(err))
		}
	}()
	zapLogger.Info("scheduler_started", zap.Duration("interval", cfg.TickInterval))

	// DLQ garbage collector: drop dead letters older than a day.
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(runCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	runCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff.
func connectQueue(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
