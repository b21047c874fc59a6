package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"claim-analyze-pipeline/claims"
	"claim-analyze-pipeline/config"
	"claim-analyze-pipeline/database"
	"claim-analyze-pipeline/gemini"
	"claim-analyze-pipeline/handlers"
	"claim-analyze-pipeline/llm"
	"claim-analyze-pipeline/metrics"
	"claim-analyze-pipeline/openai"
	"claim-analyze-pipeline/rabbitmq"
	"claim-analyze-pipeline/service"
	"claim-analyze-pipeline/stubllm"
	"claim-analyze-pipeline/translator"
)

func main() {
	// Load .env if present; real deployments use environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	metrics.Register()

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to configure model provider")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	if err := db.CreateClaimAnalysisTable(); err != nil {
		log.WithError(err).Fatal("failed to prepare database schema")
	}

	tr, err := translator.New(llmClient, cfg.TranslateWorkers)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize translator")
	}

	var claimsClient *claims.Client
	if cfg.UseClaimBackend {
		claimsClient = claims.NewClient(cfg.ClaimAPIBaseURL, cfg.ClaimPollMax, cfg.ClaimPollDelay)
	}

	amqpURL := cfg.RabbitMQ.GetAMQPURL()
	publisher, err := rabbitmq.NewPublisher(amqpURL, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize RabbitMQ publisher")
	}
	defer publisher.Close()

	analyzer := service.New(cfg, llmClient, tr, claimsClient, nil, db, publisher)

	subscriber, err := rabbitmq.NewSubscriber(amqpURL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.SubmissionQueue, cfg.RabbitMQ.PrefetchCount)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize RabbitMQ subscriber")
	}
	defer subscriber.Close()

	if err := subscriber.Start(map[string]rabbitmq.CallbackFunc{
		cfg.RabbitMQ.SubmissionRoutingKey: analyzer.HandleSubmission,
	}); err != nil {
		log.WithError(err).Fatal("failed to start RabbitMQ subscriber")
	}

	// Initialize handlers
	h := handlers.NewHandlers(analyzer, db)

	// Setup HTTP server
	router := gin.Default()

	// API routes
	api := router.Group("/api/v3")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/analyze", h.Analyze)
		api.POST("/translate", h.Translate)
		api.GET("/analysis/:id", h.GetAnalysisByID)
		api.GET("/stats", h.GetAnalysisStats)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "stub":
		return stubllm.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLMProvider)
	}
}
